package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(GenerateSecureSecret(), time.Hour)
	require.NoError(t, err)

	token, err := issuer.Generate("admin", true)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(token, "."), "JWT состоит из трёх частей")

	claims, err := issuer.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "admin", claims.Subject)
}

func TestTokenRejections(t *testing.T) {
	issuer, err := NewTokenIssuer("", time.Minute)
	require.NoError(t, err)
	other, err := NewTokenIssuer("", time.Minute)
	require.NoError(t, err)

	token, err := other.Generate("admin", true)
	require.NoError(t, err)
	_, err = issuer.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "чужая подпись")

	_, err = issuer.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// просроченный токен
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := issuer.Generate("admin", true)
	require.NoError(t, err)
	issuer.now = time.Now
	_, err = issuer.Validate(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuerSecret(t *testing.T) {
	_, err := NewTokenIssuer(base64.StdEncoding.EncodeToString([]byte("short")), time.Hour)
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewTokenIssuer("%%%", time.Hour)
	assert.Error(t, err)
}

func TestAdminCredentials(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cret-pass"))

	creds := AdminCredentials{Username: "admin", PasswordHash: hash}
	assert.True(t, creds.Authenticate("admin", "s3cret-pass"))
	assert.False(t, creds.Authenticate("admin", "wrong"))
	assert.False(t, creds.Authenticate("root", "s3cret-pass"))

	assert.False(t, AdminCredentials{Username: "admin"}.Authenticate("admin", ""), "без хеша вход выключен")
}
