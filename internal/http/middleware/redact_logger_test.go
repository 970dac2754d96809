package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogs points the global zerolog logger at a buffer for the duration
// of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })
	return &buf
}

func redactRouter(opts RedactOptions, status int) *gin.Engine {
	r := gin.New()
	r.Use(RedactingLogger(opts))
	r.GET("/x", func(c *gin.Context) { c.Status(status) })
	return r
}

func TestRedactingLogger_ScrubsQueryValues(t *testing.T) {
	buf := captureLogs(t)
	r := redactRouter(RedactOptions{}, http.StatusOK)

	req := httptest.NewRequest(http.MethodGet,
		"/x?order=a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d&email=joe@example.com&phone=0241234567", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	for _, want := range []string{"[REDACTED:id]", "[REDACTED:email]", "[REDACTED:phone]"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %s: %s", want, out)
		}
	}
	for _, leak := range []string{"a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d", "joe@example.com", "0241234567"} {
		if strings.Contains(out, leak) {
			t.Errorf("log leaked %q: %s", leak, out)
		}
	}
}

func TestRedactingLogger_MasksSensitiveHeaders(t *testing.T) {
	buf := captureLogs(t)
	r := redactRouter(RedactOptions{MaskHeaders: []string{" X-Api-Key "}}, http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer tok-supersecret")
	req.Header.Set("X-Paystack-Signature", "deadbeefcafe")
	req.Header.Set("X-Api-Key", "k-12345678")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("no masked headers in log: %s", out)
	}
	for _, leak := range []string{"tok-supersecret", "deadbeefcafe", "k-12345678"} {
		if strings.Contains(out, leak) {
			t.Errorf("header value leaked %q: %s", leak, out)
		}
	}
}

func TestRedactingLogger_SeverityTracksStatus(t *testing.T) {
	cases := []struct {
		status int
		level  string
	}{
		{http.StatusOK, `"level":"info"`},
		{http.StatusNotFound, `"level":"warn"`},
		{http.StatusBadGateway, `"level":"error"`},
	}
	for _, tc := range cases {
		buf := captureLogs(t)
		r := redactRouter(RedactOptions{}, tc.status)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		if !strings.Contains(buf.String(), tc.level) {
			t.Errorf("status %d: want %s in %s", tc.status, tc.level, buf.String())
		}
	}
}
