package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopper/pkg/httputil"
)

func staticValidator(valid string, id *Identity) TokenValidator {
	return func(token string) (*Identity, error) {
		if token != valid {
			return nil, errors.New("signature is invalid")
		}
		return id, nil
	}
}

func TestAuth_Rejections(t *testing.T) {
	validate := staticValidator("good-token", &Identity{Email: "buyer@example.com"})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic Zm9vOmJhcg=="},
		{"empty token", "Bearer "},
		{"no separator", "Bearergood-token"},
		{"bad token", "Bearer forged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := Auth(validate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusForbidden, rec.Code)

			var resp httputil.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
		})
	}
}

func TestAuth_IdentityWithoutEmailRejected(t *testing.T) {
	h := Auth(staticValidator("t", &Identity{Name: "nobody"}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuth_PassesIdentityUnchanged(t *testing.T) {
	want := Identity{Email: "seller@example.com", Name: "Ayse"}
	var got Identity
	h := Auth(staticValidator("good-token", &want))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		got, ok = IdentityFromContext(r.Context())
		require.True(t, ok)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer good-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, want, got)
}

func TestEmailFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", EmailFromContext(req.Context()))
}
