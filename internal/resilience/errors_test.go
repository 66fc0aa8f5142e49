package resilience

import (
	"testing"

	"github.com/rotisserie/eris"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"wrapped transient", NewTransientError(eris.New("overloaded"), 529), true},
		{"transient inside eris chain", eris.Wrap(NewTransientError(eris.New("503"), 503), "selector: llm call"), true},
		{"rate limit string", eris.New("request failed: rate limit exceeded"), true},
		{"429 string", eris.New("unexpected status 429"), true},
		{"overloaded string", eris.New("api error: overloaded_error"), true},
		{"auth failure", eris.New("invalid x-api-key"), false},
		{"malformed request", eris.New("max_tokens must be positive"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504, 529} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("status %d should be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404, 422} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("status %d should not be transient", code)
		}
	}
}
