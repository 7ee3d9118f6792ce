package mid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ardanlabs/milkchain/business/web/mid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginAllowed(t *testing.T) {
	tt := []struct {
		name    string
		allowed string
		origin  string
		exp     bool
	}{
		{"wildcard", "*", "https://evil.example", true},
		{"unset", "", "https://evil.example", true},
		{"no origin header", "https://dairy.example", "", true},
		{"match", "https://dairy.example", "https://dairy.example", true},
		{"match ignores case and slash", "https://Dairy.example/", "https://dairy.example", true},
		{"other site", "https://dairy.example", "https://evil.example", false},
		{"other port", "https://dairy.example", "https://dairy.example:8443", false},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, mid.OriginAllowed(tc.allowed, tc.origin))
		})
	}
}

func TestCorsHeaders(t *testing.T) {
	next := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/listAllUsers", nil)

	err := mid.Cors("https://dairy.example")(next)(context.Background(), w, r)
	require.NoError(t, err)

	assert.Equal(t, "https://dairy.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	w = httptest.NewRecorder()
	err = mid.Cors("*")(next)(context.Background(), w, r)
	require.NoError(t, err)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Vary"))
}
