package identity

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 12

// Hasher hashes and verifies account passwords with bcrypt.
type Hasher struct{}

// Hash generates a bcrypt hash of the given password.
func (Hasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify checks the password against its stored hash.
func (Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
