package endpoints

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionEndpoint(t *testing.T) {
	testCases := []struct {
		name     string
		version  string
		revision string
		expected string
	}{
		{
			name:     "both set",
			version:  "1.2.3",
			revision: "d6cd1e2bd19e03a81132a23b2025920577f84e37",
			expected: `{"revision":"d6cd1e2bd19e03a81132a23b2025920577f84e37","version":"1.2.3"}`,
		},
		{
			name:     "both empty",
			expected: `{"revision":"not-set","version":"not-set"}`,
		},
		{
			name:     "version only",
			version:  "1.2.3",
			expected: `{"revision":"not-set","version":"1.2.3"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewVersionEndpoint(tc.version, tc.revision)

			recorder := httptest.NewRecorder()
			handler(recorder, httptest.NewRequest("GET", "/version", nil))

			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.JSONEq(t, tc.expected, recorder.Body.String())
		})
	}
}
