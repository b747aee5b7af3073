package utils

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the work factor for stored password hashes. Tests lower it.
var BcryptCost = 12

// HashPassword generates a bcrypt hash from a plain text password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

// ComparePassword reports whether password matches the bcrypt hash
func ComparePassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
