package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the cost factor for bcrypt password hashing
const BcryptCost = 12

var ErrPasswordMismatch = errors.New("password mismatch")

// dummyHash is a bcrypt hash of a random string, compared against when the
// username is unknown so that login failures take the same time either way.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ComparePassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// CompareDummy burns a bcrypt comparison without revealing anything. Always
// fails.
func CompareDummy(password string) error {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
	return ErrPasswordMismatch
}
