package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// 管理者認証まわりのエラー。handlerでステータスに振り分ける
var (
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInternal     = errors.New("internal error")
)

type AuthValidator interface {
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateSeed(ctx context.Context, email string, password string) error
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminProfile は /auth/me とログイン応答に載せる管理者情報
type AdminProfile struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	TokenVersion int        `json:"token_version"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

type AccessToken struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type LoginOutput struct {
	User  AdminProfile `json:"user"`
	Token AccessToken  `json:"token"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type AuthUsecase struct {
	jwtSecret string
	users     repository.UserRepository
	validator AuthValidator
	now       func() time.Time
}

func NewAuthUsecase(cfg config.Config, users repository.UserRepository, validator AuthValidator) *AuthUsecase {
	return &AuthUsecase{
		jwtSecret: cfg.JWTSecret,
		users:     users,
		validator: validator,
		now:       time.Now,
	}
}

func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	email := strings.TrimSpace(in.Email)
	if err := u.validator.ValidateLogin(ctx, email, in.Password); err != nil {
		return nil, ErrValidation
	}

	user, err := u.verifyPassword(ctx, email, in.Password)
	if err != nil {
		return nil, err
	}
	if !user.CanSignIn() {
		return nil, ErrForbidden
	}

	now := u.now()
	user.LastLoginAt = &now
	// last_login_at は記録できなくてもログインは通す
	_ = u.users.Update(ctx, user)

	signed, err := auth.NewAdminClaims(user, now).Sign(u.jwtSecret)
	if err != nil {
		return nil, ErrInternal
	}
	return &LoginOutput{
		User: profileOf(user),
		Token: AccessToken{
			AccessToken:  signed,
			ExpiresIn:    int(auth.AccessTokenTTL / time.Second),
			TokenVersion: user.TokenVersion,
		},
	}, nil
}

// メール不明とパスワード違いは同じ401
func (u *AuthUsecase) verifyPassword(ctx context.Context, email string, password string) (*model.User, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrInternal
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*AdminProfile, error) {
	user, err := u.lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}
	p := profileOf(user)
	return &p, nil
}

// token_version を上げると発行済みのアクセストークンは全部使えなくなる
func (u *AuthUsecase) Logout(ctx context.Context, userID int64) (*SuccessResponse, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	switch err := u.users.IncrementTokenVersion(ctx, userID); {
	case err == nil:
		return &SuccessResponse{Message: "logout success"}, nil
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrUnauthorized
	default:
		return nil, ErrInternal
	}
}

// SeedAdmin は起動時に管理者がいなければ作る。作ったら true。
func (u *AuthUsecase) SeedAdmin(ctx context.Context, email string, password string) (bool, error) {
	email = strings.TrimSpace(email)
	if err := u.validator.ValidateSeed(ctx, email, password); err != nil {
		return false, ErrValidation
	}

	existing, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		return false, ErrInternal
	}
	if existing != nil {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, ErrInternal
	}
	err = u.users.Create(ctx, &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		IsActive:     true,
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrConflict):
		// 複数台同時起動で先を越された
		return false, nil
	default:
		return false, ErrInternal
	}
}

func (u *AuthUsecase) lookup(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, ErrInternal
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func profileOf(u *model.User) AdminProfile {
	return AdminProfile{
		ID:           u.ID,
		Email:        u.Email,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
	}
}
