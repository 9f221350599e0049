// Package password хеширует и проверяет пароли пользователей bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinLength минимальная длина пароля при регистрации.
	MinLength = 6
	// MaxBytes bcrypt учитывает только первые 72 байта.
	MaxBytes = 72
)

// ErrPolicy пароль не подходит по длине.
var ErrPolicy = errors.New("password does not satisfy policy")

// Hash проверяет длину пароля и возвращает его bcrypt-хеш.
func Hash(password string) (string, error) {
	const op = "password.Hash"
	if len([]rune(password)) < MinLength {
		return "", fmt.Errorf("%s: %w: at least %d characters", op, ErrPolicy, MinLength)
	}
	if len(password) > MaxBytes {
		return "", fmt.Errorf("%s: %w: at most %d bytes", op, ErrPolicy, MaxBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Compare возвращает nil, если пароль соответствует хешу.
func Compare(hash, password string) error {
	const op = "password.Compare"
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
