package propagation

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/baggage"

	"mercator-hq/callisto/pkg/evidence/span"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

// Correlation Key Propagation
//
// A logical business operation can cross service boundaries: the service
// that authenticates a data-subject request and the service that assembles
// the disclosure may be different processes. For their evidence spans to
// share one correlation context, the correlation key has to travel with
// the request.
//
// The key is carried twice:
//
//   - X-Correlation-Key: a plain header any peer can read and forward.
//   - baggage: the W3C Baggage header (https://www.w3.org/TR/baggage/),
//     member "correlation_key", so OTLP-aware intermediaries propagate it
//     with the rest of their telemetry context.
//
// On extraction the plain header wins; baggage is the fallback.

// Header is the plain HTTP header carrying the correlation key.
const Header = "X-Correlation-Key"

// baggageHeader is the W3C Baggage header name.
const baggageHeader = "baggage"

// baggageMember is the baggage member name carrying the correlation key.
const baggageMember = "correlation_key"

// FromHeaders returns the correlation key carried in the headers, or ""
// if none is present.
func FromHeaders(headers http.Header) string {
	if key := headers.Get(Header); key != "" {
		return key
	}

	bag, err := baggage.Parse(headers.Get(baggageHeader))
	if err != nil {
		return ""
	}
	return bag.Member(baggageMember).Value()
}

// Extract reads the correlation key from incoming request headers and
// returns a context carrying it. If no key is present, the original
// context is returned unchanged.
//
// Call it on the server side when receiving a request:
//
//	ctx := propagation.Extract(r.Context(), r.Header)
//	s, err := factory.Begin("Art.15", propagation.BeginOptions(ctx)...)
func Extract(ctx context.Context, headers http.Header) context.Context {
	key := FromHeaders(headers)
	if key == "" {
		return ctx
	}
	return logging.WithCorrelationKey(ctx, key)
}

// Inject writes the context's correlation key into outgoing request
// headers. A context without a correlation key injects nothing.
//
// Call it on the client side before sending a request:
//
//	req, _ := http.NewRequestWithContext(ctx, "POST", url, body)
//	propagation.Inject(ctx, req.Header)
func Inject(ctx context.Context, headers http.Header) {
	key := logging.CorrelationKeyFromContext(ctx)
	if key == "" {
		return
	}

	headers.Set(Header, key)

	member, err := baggage.NewMember(baggageMember, key)
	if err != nil {
		return
	}
	bag, err := baggage.New(member)
	if err != nil {
		return
	}
	headers.Set(baggageHeader, bag.String())
}

// CorrelationKey returns the correlation key carried by the context, or
// "" if none is set.
func CorrelationKey(ctx context.Context) string {
	return logging.CorrelationKeyFromContext(ctx)
}

// WithCorrelationKey returns a context carrying the correlation key, for
// services that originate the key themselves.
func WithCorrelationKey(ctx context.Context, key string) context.Context {
	return logging.WithCorrelationKey(ctx, key)
}

// BeginOptions returns the span Begin options implied by the context: a
// WithCorrelationKey option when the context carries a propagated key,
// nothing otherwise. Spreading the result into Begin joins the caller's
// correlation context, or starts a fresh one when the request arrived
// without a key.
func BeginOptions(ctx context.Context) []span.BeginOption {
	key := logging.CorrelationKeyFromContext(ctx)
	if key == "" {
		return nil
	}
	return []span.BeginOption{span.WithCorrelationKey(key)}
}

// Middleware extracts the correlation key from incoming requests and
// places it on the request context before calling next.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(Extract(r.Context(), r.Header)))
	})
}
