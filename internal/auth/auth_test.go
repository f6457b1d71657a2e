package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

func mintToken(t *testing.T, userID, role, secret string, ttl time.Duration) string {
	t.Helper()

	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jwtIssuer,
			Audience:  []string{jwtAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)

	return signed
}

func TestValidateToken(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		token := mintToken(t, "user-1", "trainer", testSecret, time.Hour)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "trainer", claims.Role)
	})

	t.Run("expired token", func(t *testing.T) {
		token := mintToken(t, "user-1", "trainer", testSecret, -time.Minute)

		_, err := ValidateToken(token, testSecret)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := mintToken(t, "user-1", "trainer", "other-secret", time.Hour)

		_, err := ValidateToken(token, testSecret)
		assert.Error(t, err)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		now := time.Now()
		claims := &Claims{
			UserID: "user-1",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(now),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ValidateToken(token, testSecret)
		assert.Error(t, err)
	})
}

func okHandler(hits *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("passes valid bearer token and stores claims", func(t *testing.T) {
		var got *Claims
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+mintToken(t, "client-7", "client", testSecret, time.Hour))
		rec := httptest.NewRecorder()

		Middleware(log, testSecret)(inner).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "client-7", got.UserID)
	})

	t.Run("rejects missing token", func(t *testing.T) {
		hits := 0
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		Middleware(log, testSecret)(okHandler(&hits)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, hits)
	})

	t.Run("rejects garbage token", func(t *testing.T) {
		hits := 0
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()

		Middleware(log, testSecret)(okHandler(&hits)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, hits)
	})

	t.Run("empty secret disables auth", func(t *testing.T) {
		hits := 0
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		Middleware(log, "")(okHandler(&hits)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, hits)
	})
}

func TestRequireRole(t *testing.T) {
	withClaims := func(req *http.Request, claims *Claims) *http.Request {
		return req.WithContext(context.WithValue(req.Context(), ctxKey{}, claims))
	}

	t.Run("matching role passes", func(t *testing.T) {
		hits := 0
		req := withClaims(httptest.NewRequest(http.MethodPost, "/", nil), &Claims{UserID: "t-1", Role: "trainer"})
		rec := httptest.NewRecorder()

		RequireRole("trainer")(okHandler(&hits)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, hits)
	})

	t.Run("admin always passes", func(t *testing.T) {
		hits := 0
		req := withClaims(httptest.NewRequest(http.MethodPost, "/", nil), &Claims{UserID: "a-1", Role: "admin"})
		rec := httptest.NewRecorder()

		RequireRole("trainer")(okHandler(&hits)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, hits)
	})

	t.Run("wrong role is forbidden", func(t *testing.T) {
		hits := 0
		req := withClaims(httptest.NewRequest(http.MethodPost, "/", nil), &Claims{UserID: "c-1", Role: "client"})
		rec := httptest.NewRecorder()

		RequireRole("trainer")(okHandler(&hits)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Zero(t, hits)
	})
}
