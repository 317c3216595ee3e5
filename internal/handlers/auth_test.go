package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	signer := tokenSigner{secret: []byte("s3cret"), ttl: time.Minute}
	token, err := signer.issue("9b1f6c1e-user")
	require.NoError(t, err)

	subject, err := signer.subject(token)
	require.NoError(t, err)
	assert.Equal(t, "9b1f6c1e-user", subject)

	other := tokenSigner{secret: []byte("other"), ttl: time.Minute}
	_, err = other.subject(token)
	assert.Error(t, err)

	expired, err := tokenSigner{secret: signer.secret, ttl: -time.Minute}.issue("u1")
	require.NoError(t, err)
	_, err = signer.subject(expired)
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		got, err := bearerToken(r)
		if !tc.ok {
			assert.Error(t, err, tc.header)
			continue
		}
		require.NoError(t, err, tc.header)
		assert.Equal(t, tc.want, got)
	}
}

func TestRequireAuthInjectsSubject(t *testing.T) {
	signer := tokenSigner{secret: []byte("s3cret"), ttl: time.Minute}
	token, err := signer.issue("u1")
	require.NoError(t, err)

	var seen string
	h := requireAuth(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = userIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "u1", seen)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAPIKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	open := RequireAPIKey("")(ok)
	w := httptest.NewRecorder()
	open.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	guarded := RequireAPIKey("k")(ok)
	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(APIKeyHeader, "k")
	w = httptest.NewRecorder()
	guarded.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
