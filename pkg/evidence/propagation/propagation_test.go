package propagation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/callisto/pkg/telemetry/logging"
)

func TestInjectExtractRoundTrip(t *testing.T) {
	ctx := WithCorrelationKey(context.Background(), "req-9f2c")

	headers := make(http.Header)
	Inject(ctx, headers)

	if got := headers.Get(Header); got != "req-9f2c" {
		t.Errorf("plain header = %q, want %q", got, "req-9f2c")
	}
	if got := headers.Get("baggage"); got != "correlation_key=req-9f2c" {
		t.Errorf("baggage header = %q, want %q", got, "correlation_key=req-9f2c")
	}

	extracted := Extract(context.Background(), headers)
	if got := CorrelationKey(extracted); got != "req-9f2c" {
		t.Errorf("extracted key = %q, want %q", got, "req-9f2c")
	}
}

func TestInjectWithoutKey(t *testing.T) {
	headers := make(http.Header)
	Inject(context.Background(), headers)

	if len(headers) != 0 {
		t.Errorf("Inject without key wrote headers: %v", headers)
	}
}

func TestFromHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "plain header",
			headers: map[string]string{Header: "key-1"},
			want:    "key-1",
		},
		{
			name:    "baggage only",
			headers: map[string]string{"baggage": "correlation_key=key-2"},
			want:    "key-2",
		},
		{
			name: "plain header wins over baggage",
			headers: map[string]string{
				Header:    "key-1",
				"baggage": "correlation_key=key-2",
			},
			want: "key-1",
		},
		{
			name:    "baggage with other members",
			headers: map[string]string{"baggage": "tenant=acme,correlation_key=key-3"},
			want:    "key-3",
		},
		{
			name:    "baggage without the member",
			headers: map[string]string{"baggage": "tenant=acme"},
			want:    "",
		},
		{
			name:    "malformed baggage",
			headers: map[string]string{"baggage": ";;;"},
			want:    "",
		},
		{
			name:    "no headers",
			headers: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := make(http.Header)
			for k, v := range tt.headers {
				headers.Set(k, v)
			}

			if got := FromHeaders(headers); got != tt.want {
				t.Errorf("FromHeaders() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractWithoutKeyKeepsContext(t *testing.T) {
	ctx := context.Background()
	if got := Extract(ctx, make(http.Header)); got != ctx {
		t.Error("Extract without a key should return the original context")
	}
}

func TestBeginOptions(t *testing.T) {
	if opts := BeginOptions(context.Background()); len(opts) != 0 {
		t.Errorf("BeginOptions without key = %d options, want 0", len(opts))
	}

	ctx := WithCorrelationKey(context.Background(), "req-1")
	if opts := BeginOptions(ctx); len(opts) != 1 {
		t.Errorf("BeginOptions with key = %d options, want 1", len(opts))
	}
}

func TestMiddleware(t *testing.T) {
	var got string
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = logging.CorrelationKeyFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	req.Header.Set(Header, "req-mw")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "req-mw" {
		t.Errorf("middleware context key = %q, want %q", got, "req-mw")
	}
}
