package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"fellowship/pkg/testutil"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cases := []struct {
		name     string
		expected string
		header   string
		status   int
	}{
		{name: "matching token", expected: "secret", header: "secret", status: http.StatusNoContent},
		{name: "wrong token", expected: "secret", header: "guess", status: http.StatusUnauthorized},
		{name: "missing token", expected: "secret", header: "", status: http.StatusUnauthorized},
		{name: "unconfigured token rejects everyone", expected: "", header: "", status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/group-reports", nil)
			if tc.header != "" {
				req.Header.Set(HeaderAdminToken, tc.header)
			}
			rr := httptest.NewRecorder()
			RequireAdminToken(tc.expected, logger)(ok).ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code)
			if tc.status == http.StatusUnauthorized {
				testutil.AssertErrorCode(t, rr, "unauthorized")
			}
		})
	}
}
