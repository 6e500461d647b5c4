package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword checks a submitted password against its stored bcrypt hash.
// bcrypt compares digests in constant time, so timing does not leak prefix
// matches. A mismatch reports ErrInvalidCredentials rather than the bcrypt
// error; the caller decides the user-visible outcome.
func VerifyPassword(storedHash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
