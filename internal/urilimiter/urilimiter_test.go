package urilimiter

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	})

	tests := map[string]struct {
		limit          int
		url            string
		expectedStatus int
	}{
		"disabled middleware passes everything through": {
			limit:          0,
			url:            "/index.html?q=" + longQuery(1024),
			expectedStatus: http.StatusOK,
		},
		"uri at the limit is served": {
			limit:          15,
			url:            "/index.html?q=a",
			expectedStatus: http.StatusOK,
		},
		"uri exceeding the limit is rejected": {
			limit:          15,
			url:            "/index.html?q=ab",
			expectedStatus: http.StatusRequestURITooLong,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			middleware := NewMiddleware(handler, tt.limit)

			recorder := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, tt.url, nil)

			middleware.ServeHTTP(recorder, request)

			require.Equal(t, tt.expectedStatus, recorder.Code)
			if tt.expectedStatus == http.StatusOK {
				require.Equal(t, "hello", recorder.Body.String())
			}
		})
	}
}

func longQuery(n int) string {
	query := make([]byte, n)
	for i := range query {
		query[i] = 'q'
	}
	return string(query)
}
