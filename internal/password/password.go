// Package password provides one-way credential hashing.
package password

import "golang.org/x/crypto/bcrypt"

// Hash applies bcrypt with a per-call random salt. Two calls with the
// same password produce different encoded outputs.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify recomputes the hash using the salt embedded in the stored
// value and compares in constant time. A malformed stored hash is a
// mismatch, never an error.
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
