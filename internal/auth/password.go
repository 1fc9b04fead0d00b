package auth

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of the password using DefaultCost.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword compares a bcrypt hashed password with its possible plaintext equivalent.
func CheckPassword(hash string, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// AdminCredentials holds the single configured administrator.
// An empty hash disables password login.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

// Authenticate reports whether the pair matches the configured administrator.
func (a AdminCredentials) Authenticate(username, password string) bool {
	if a.PasswordHash == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(a.Username), []byte(username)) == 1
	// bcrypt runs even on a wrong name so timing does not reveal it
	passOK := CheckPassword(a.PasswordHash, password)
	return userOK && passOK
}
