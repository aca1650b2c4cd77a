package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes ограничивает длину пароля в байтах, bcrypt не принимает более длинные.
const MaxPasswordBytes = 72

// ErrPasswordTooLong возвращается для паролей длиннее MaxPasswordBytes байт.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

// HashPassword возвращает bcrypt-хэш пароля.
func HashPassword(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword сравнивает пароль с bcrypt-хэшем.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
