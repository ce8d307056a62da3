package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-with-at-least-32-bytes!!"

func TestJWTManager_RoundTrip(t *testing.T) {
	m, err := NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, expires, err := m.GenerateToken("admin", RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestJWTManager_Rejects(t *testing.T) {
	m, err := NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)

	t.Run("Expired", func(t *testing.T) {
		past := time.Now().Add(-2 * time.Hour)
		m.now = func() time.Time { return past }
		token, _, err := m.GenerateToken("admin", RoleAdmin)
		require.NoError(t, err)
		m.now = time.Now

		_, err = m.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other, err := NewJWTManager("another-secret-with-at-least-32-bytes", time.Hour)
		require.NoError(t, err)
		token, _, err := other.GenerateToken("admin", RoleAdmin)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("None algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "admin", Role: RoleAdmin}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	_, err := NewJWTManager("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		creds    func() (*Credentials, error)
		username string
		password string
		wantErr  error
	}{
		{"Hash accepted", func() (*Credentials, error) { return NewCredentials("admin", string(hash), "") }, "admin", "s3cret", nil},
		{"Wrong password", func() (*Credentials, error) { return NewCredentials("admin", string(hash), "") }, "admin", "nope", ErrInvalidCredentials},
		{"Wrong username", func() (*Credentials, error) { return NewCredentials("admin", string(hash), "") }, "root", "s3cret", ErrInvalidCredentials},
		{"Plain password hashed", func() (*Credentials, error) { return NewCredentials("admin", "", "plain") }, "admin", "plain", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := tt.creds()
			require.NoError(t, err)
			err = creds.Verify(tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	_, err = NewCredentials("admin", "", "")
	assert.ErrorIs(t, err, ErrNoPassword)
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, err := NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.GET("/admin", RequireAdmin(m), func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user": claims.Username})
	})

	adminToken, _, err := m.GenerateToken("admin", RoleAdmin)
	require.NoError(t, err)
	viewerToken, _, err := m.GenerateToken("viewer", "viewer")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"No header", "", http.StatusUnauthorized},
		{"Not bearer", "Basic abc", http.StatusUnauthorized},
		{"Bad token", "Bearer abc", http.StatusUnauthorized},
		{"Wrong role", "Bearer " + viewerToken, http.StatusForbidden},
		{"Admin", "Bearer " + adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
