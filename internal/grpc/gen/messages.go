// Package authpb описывает gRPC-контракт сервиса авторизации из
// proto/auth/v1/auth.proto.
//
// Методы принимают и возвращают google.protobuf.Struct, типизированные
// сообщения ниже упаковываются в него через Encode и Decode.
package authpb

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// RegisterRequest запрос регистрации.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// RegisterResponse результат регистрации.
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserUID string `json:"user_uid"`
}

// LoginRequest запрос входа.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse выданный токен.
type LoginResponse struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	UserUID string `json:"user_uid"`
}

// ValidateTokenRequest запрос проверки токена.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse данные пользователя из токена.
type ValidateTokenResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Useruid  string `json:"useruid"`
	Valid    bool   `json:"valid"`
}

// Encode упаковывает сообщение в structpb.Struct.
func Encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("authpb.Encode: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("authpb.Encode: %w", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("authpb.Encode: %w", err)
	}
	return s, nil
}

// Decode распаковывает s в v.
func Decode(s *structpb.Struct, v any) error {
	raw, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("authpb.Decode: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("authpb.Decode: %w", err)
	}
	return nil
}
