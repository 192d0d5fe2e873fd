package validator

import (
	"context"
	"errors"

	"storefront/internal/usecase"

	playground "github.com/go-playground/validator/v10"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

// 管理者パスワードの最低文字数
const minAdminPasswordLength = 8

type authValidator struct {
	v *playground.Validate
}

// Usecaseは interface を依存注入
func NewAuthValidator() usecase.AuthValidator {
	return &authValidator{v: playground.New()}
}

// ログインの入力を検証
func (a *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	if err := a.v.VarCtx(ctx, email, "required,email"); err != nil {
		return ErrInvalidInput
	}
	if password == "" {
		return ErrInvalidInput
	}
	return nil
}

// 起動時に作る管理者の入力を検証
func (a *authValidator) ValidateSeed(ctx context.Context, email string, password string) error {
	if err := a.ValidateLogin(ctx, email, password); err != nil {
		return err
	}
	if len(password) < minAdminPasswordLength {
		return ErrInvalidInput
	}
	return nil
}
