package validator

import (
	"errors"
	"regexp"
	"strings"

	"marketplace/internal/usecase"
)

var (
	// 必須項目が足りない
	ErrMissingFields = errors.New("name, email and password are required")

	// email形式が不正
	ErrInvalidEmail = errors.New("invalid email")

	// パスワードが短すぎる
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

type authValidator struct{}

// Usecaseは interface を依存注入
func NewAuthValidator() usecase.AuthValidator {
	return &authValidator{}
}

// サインアップの入力を検証
func (v *authValidator) ValidateSignup(name string, email string, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	// 必須チェック
	if name == "" || email == "" || password == "" {
		return ErrMissingFields
	}

	// email形式
	if !isEmailLike(email) {
		return ErrInvalidEmail
	}

	// パスワード最低文字数
	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(email string, password string) error {
	email = strings.TrimSpace(email)

	if email == "" || password == "" {
		return ErrMissingFields
	}

	if !isEmailLike(email) {
		return ErrInvalidEmail
	}

	return nil
}

// リセット時の新パスワードを検証
func (v *authValidator) ValidateNewPassword(password string) error {
	if password == "" {
		return ErrMissingFields
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
