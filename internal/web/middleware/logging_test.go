package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/bulkload/internal/logging"
)

func TestLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	tests := []struct {
		name   string
		status int
		want   []string
	}{
		{"ok", http.StatusOK, []string{"level=INFO", "status=200", "bytes=5", "path=/api/targets"}},
		{"client error", http.StatusUnprocessableEntity, []string{"level=WARN", "status=422"}},
		{"server error", http.StatusInternalServerError, []string{"level=ERROR", "status=500"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logging.SetupWriter(&buf, "debug", "text")

			h := chimw.RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("hello"))
			})))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/targets", nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			out := buf.String()
			for _, w := range append(tt.want, "request_id=") {
				if !strings.Contains(out, w) {
					t.Errorf("log output missing %q: %s", w, out)
				}
			}
		})
	}
}
