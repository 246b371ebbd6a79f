package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/go-todo-nosql/internal/domain"
	"github.com/go-todo-nosql/internal/pkg/id"
	"github.com/go-todo-nosql/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldVerified     = "verified"
	fieldOTP          = "otp"
	fieldOTPExpires   = "otp_expires"
	fieldPasswordHash = "password_hash"
)

const minPasswordLen = 6

// Caller-facing messages.
const (
	msgInvalidOTP         = "Invalid OTP or OTP has expired"
	msgInvalidCredentials = "Invalid email or password"
)

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) error
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) error
	Login(ctx context.Context, req domain.LoginRequest) (string, error)
	ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
}

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, email string, updates map[string]interface{}) error
}

type mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

type tokenSigner interface {
	Sign(userID string) (string, error)
}

type service struct {
	repo    userStore
	mailer  mailer
	signer  tokenSigner
	now     func() time.Time
	newCode func() (string, error)
}

type ServiceDeps struct {
	UserRepo userStore
	Mailer   mailer
	Signer   tokenSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:    deps.UserRepo,
		mailer:  deps.Mailer,
		signer:  deps.Signer,
		now:     time.Now,
		newCode: generateOTP,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) error {
	if err := validate.Struct(&req); err != nil {
		return domain.NewError(domain.ErrBadRequest, "Username, email, and password are required")
	}

	existing, err := s.findUser(ctx, req.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		if !existing.Verified {
			if err := s.issueOTP(ctx, existing); err != nil {
				return err
			}
			return domain.NewError(domain.ErrForbidden, "Email already registered but not verified. OTP has been resent.")
		}
		if existing.Username != req.Username || !passwordMatches(existing, req.Password) {
			return domain.NewError(domain.ErrBadRequest, "Invalid username or password for the registered email")
		}
		return domain.NewError(domain.ErrConflict, "Email already exists")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	code, err := s.newCode()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	expires := now.Add(otpTTL)
	u := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		OTP:          &code,
		OTPExpires:   &expires,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.NewError(domain.ErrConflict, "Email already exists")
		}
		return err
	}
	slog.Info("user registered", "user_id", u.UserID)
	return s.sendOTP(ctx, u.Email, code)
}

func (s *service) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) error {
	if err := validate.Struct(&req); err != nil {
		return domain.NewError(domain.ErrBadRequest, "Email and OTP are required")
	}
	u, err := s.findUser(ctx, req.Email)
	if err != nil {
		return err
	}
	if u == nil || !u.OTPValid(req.OTP, s.now()) {
		return domain.NewError(domain.ErrBadRequest, msgInvalidOTP)
	}
	return s.repo.Update(ctx, u.Email, map[string]interface{}{
		fieldVerified:   true,
		fieldOTP:        nil,
		fieldOTPExpires: nil,
	})
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	if err := validate.Struct(&req); err != nil {
		return "", domain.NewError(domain.ErrBadRequest, "Email and password are required")
	}
	u, err := s.findUser(ctx, req.Email)
	if err != nil {
		return "", err
	}
	if u == nil || !passwordMatches(u, req.Password) {
		return "", domain.NewError(domain.ErrUnauthorized, msgInvalidCredentials)
	}
	if !u.Verified {
		if err := s.issueOTP(ctx, u); err != nil {
			return "", err
		}
		return "", domain.NewError(domain.ErrForbidden, "Email not verified. OTP has been sent for verification.")
	}
	token, err := s.signer.Sign(u.UserID)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (s *service) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	if err := validate.Struct(&req); err != nil {
		return domain.NewError(domain.ErrBadRequest, "Email is required")
	}
	u, err := s.findUser(ctx, req.Email)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.NewError(domain.ErrNotFound, "User not found")
	}
	if !u.Verified {
		return domain.NewError(domain.ErrForbidden, "Please verify your email before requesting a password reset")
	}
	return s.issueOTP(ctx, u)
}

func (s *service) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	if err := validate.Struct(&req); err != nil {
		return domain.NewError(domain.ErrBadRequest, "Email, OTP, and new password are required")
	}
	if utf8.RuneCountInString(req.NewPassword) < minPasswordLen {
		return domain.NewError(domain.ErrBadRequest, "New password must be at least 6 characters long")
	}
	u, err := s.findUser(ctx, req.Email)
	if err != nil {
		return err
	}
	if u == nil || !u.OTPValid(req.OTP, s.now()) {
		return domain.NewError(domain.ErrBadRequest, msgInvalidOTP)
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.repo.Update(ctx, u.Email, map[string]interface{}{
		fieldPasswordHash: hash,
		fieldOTP:          nil,
		fieldOTPExpires:   nil,
	})
}

// findUser returns (nil, nil) when no account has the email.
func (s *service) findUser(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// issueOTP replaces any pending challenge on u and emails the new code.
func (s *service) issueOTP(ctx context.Context, u *domain.User) error {
	code, err := s.newCode()
	if err != nil {
		return err
	}
	expires := s.now().UTC().Add(otpTTL)
	if err := s.repo.Update(ctx, u.Email, map[string]interface{}{
		fieldOTP:        code,
		fieldOTPExpires: expires,
	}); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return s.sendOTP(ctx, u.Email, code)
}

func (s *service) sendOTP(ctx context.Context, email, code string) error {
	if err := s.mailer.SendEmail(ctx, email, otpSubject, otpEmailBody(code)); err != nil {
		slog.Warn("otp email delivery failed", "err", err)
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.NewError(domain.ErrBadRequest, "Password must be at most 72 bytes long")
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func passwordMatches(u *domain.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
