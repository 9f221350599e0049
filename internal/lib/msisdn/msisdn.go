// Package msisdn проверяет мозамбикские номера мобильных кошельков.
//
// M-Pesa обслуживает префиксы 84 и 85, e-Mola префиксы 86 и 87.
package msisdn

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/minigestor/internal/models"
)

const countryCode = "258"

var (
	ErrInvalidFormat  = errors.New("invalid phone number format")
	ErrMethodMismatch = errors.New("phone number does not belong to payment method")
	ErrUnknownMethod  = errors.New("unknown payment method")
)

var prefixes = map[models.Method][]string{
	models.MethodMpesa: {"84", "85"},
	models.MethodEmola: {"86", "87"},
}

// Normalize приводит номер к девяти цифрам без кода страны. Знак + допустим
// только первым символом.
func Normalize(phone string) (string, error) {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || (r == '+' && i == 0):
		default:
			return "", ErrInvalidFormat
		}
	}
	digits := b.String()
	if len(digits) == 12 && strings.HasPrefix(digits, countryCode) {
		digits = digits[len(countryCode):]
	}
	if len(digits) != 9 || digits[0] != '8' {
		return "", ErrInvalidFormat
	}
	return digits, nil
}

// MatchesMethod сообщает, принадлежит ли нормализованный номер кошельку method.
func MatchesMethod(method models.Method, phone string) bool {
	for _, p := range prefixes[method] {
		if strings.HasPrefix(phone, p) {
			return true
		}
	}
	return false
}

// Validate нормализует номер и проверяет его соответствие способу оплаты.
func Validate(method models.Method, phone string) (string, error) {
	const op = "msisdn.Validate"
	if !method.Valid() {
		return "", fmt.Errorf("%s: %w: %q", op, ErrUnknownMethod, method)
	}
	normalized, err := Normalize(phone)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !MatchesMethod(method, normalized) {
		return "", fmt.Errorf("%s: %w", op, ErrMethodMismatch)
	}
	return normalized, nil
}

// RegisterValidation регистрирует тег mzphone для проверки формата номера в DTO.
func RegisterValidation(v *validator.Validate) error {
	return v.RegisterValidation("mzphone", func(fl validator.FieldLevel) bool {
		_, err := Normalize(fl.Field().String())
		return err == nil
	})
}
