package span

import (
	"errors"
	"fmt"

	"mercator-hq/callisto/pkg/evidence"
)

// Do wraps fn in a span lifecycle, guaranteeing a terminal transition on
// every exit path: a normal return ends the span OK, a returned error or a
// panic ends it with that error recorded as evidence (panics are re-raised
// after recording).
//
// This is the scoped-acquisition form of the API: call sites that cannot
// route every failure exit through EndWithError by discipline use Do to get
// the guarantee structurally.
//
//	err := gdprFactory.Do(registry.GDPRArt15, func(s *span.Span) error {
//	    s.SetInput("user_id", userID)
//	    data, err := store.Fetch(ctx, userID)
//	    if err != nil {
//	        return err
//	    }
//	    s.SetOutput("records_returned", len(data))
//	    return nil
//	})
//
// fn may end the span itself (e.g., to control the recorded error); Do
// detects the terminal state and does not end it twice.
func (f *Factory) Do(controlID string, fn func(*Span) error, opts ...BeginOption) error {
	s, err := f.Begin(controlID, opts...)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			endQuietly(s, func() error {
				return s.EndWithError(&panicError{value: r})
			})
			panic(r)
		}
	}()

	if err := fn(s); err != nil {
		endQuietly(s, func() error { return s.EndWithError(err) })
		return err
	}

	endQuietly(s, s.End)
	return nil
}

// endQuietly runs a terminal transition, tolerating the span having already
// been ended by fn.
func endQuietly(s *Span, end func() error) {
	if err := end(); err != nil {
		var already *evidence.SpanAlreadyEndedError
		if !errors.As(err, &already) {
			// end() only fails with SpanAlreadyEnded; anything else would be
			// a bug in the engine itself.
			panic(fmt.Sprintf("span end failed: %v", err))
		}
	}
}

// panicError adapts a recovered panic value into the recorded evidence.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// Kind classifies the recorded evidence error.
func (e *panicError) Kind() string {
	return "panic"
}
