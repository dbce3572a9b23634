package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgauth "github.com/dkwapong/storefront-backend/pkg/auth"
	"github.com/dkwapong/storefront-backend/pkg/config"
	"github.com/dkwapong/storefront-backend/pkg/db"
	"github.com/dkwapong/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dkwapong/storefront-backend/pkg/errors"
	"github.com/dkwapong/storefront-backend/pkg/phone"
	"github.com/dkwapong/storefront-backend/pkg/security"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

const uniqueEmailConstraint = "idx_users_email"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the behavior needed by the auth and user controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)
	Profile(ctx context.Context, email string) (*UserDTO, error)
	UpdateProfile(ctx context.Context, email string, req UpdateProfileRequest) (*UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type service struct {
	users       UserRepository
	tx          txRunner
	phone       phone.Validator
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
}

// ServiceParams bundles the dependencies required to build an accounts service.
type ServiceParams struct {
	UserRepo       UserRepository
	Tx             txRunner
	PhoneValidator phone.Validator
	PasswordConfig config.PasswordConfig
	JWTConfig      config.JWTConfig
}

// NewService constructs an accounts service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.PhoneValidator == nil {
		return nil, fmt.Errorf("phone validator is required")
	}
	return &service{
		users:       params.UserRepo,
		tx:          params.Tx,
		phone:       params.PhoneValidator,
		passwordCfg: params.PasswordConfig,
		jwtCfg:      params.JWTConfig,
	}, nil
}

// Register validates the payload, hashes credentials and persists the user.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	phoneNumber, err := s.checkPhone(ctx, req.Phone)
	if err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var created *UserDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.users.WithTx(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			FirstName:    strings.TrimSpace(req.FirstName),
			LastName:     strings.TrimSpace(req.LastName),
			Phone:        phoneNumber,
			DateOfBirth:  req.DateOfBirth,
		})
		if err != nil {
			// The unique index is the arbiter under concurrent registration.
			if db.IsUniqueViolation(err, uniqueEmailConstraint) {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		created = FromModel(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Profile returns the account that owns the session.
func (s *service) Profile(ctx context.Context, email string) (*UserDTO, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return FromModel(user), nil
}

// UpdateProfile applies a partial update to the user identified by email.
func (s *service) UpdateProfile(ctx context.Context, email string, req UpdateProfileRequest) (*UserDTO, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	// Blank values are treated the same as absent ones, so a client cannot
	// blank out a name or clear a phone number with an empty string.
	fields := map[string]any{}
	if req.FirstName != nil {
		if name := strings.TrimSpace(*req.FirstName); name != "" {
			fields["first_name"] = name
		}
	}
	if req.LastName != nil {
		if name := strings.TrimSpace(*req.LastName); name != "" {
			fields["last_name"] = name
		}
	}
	if req.Phone != nil {
		phoneNumber, err := s.checkPhone(ctx, req.Phone)
		if err != nil {
			return nil, err
		}
		if phoneNumber != nil {
			fields["phone"] = phoneNumber
		}
	}
	if req.DateOfBirth != nil {
		fields["date_of_birth"] = req.DateOfBirth
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	fields["updated_at"] = time.Now().UTC()

	rows, err := s.users.UpdateByEmail(ctx, email, fields)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload user")
	}
	return FromModel(user), nil
}

// Login authenticates the credentials and mints a session token.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := pkgauth.MintSessionToken(s.jwtCfg, time.Now().UTC(), user.ID, user.Email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: token,
		User:        FromModel(user),
	}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

// checkPhone validates a supplied number through the lookup API. A nil or
// blank number passes through untouched.
func (s *service) checkPhone(ctx context.Context, number *string) (*string, error) {
	if number == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*number)
	if trimmed == "" {
		return nil, nil
	}

	valid, err := s.phone.Validate(ctx, trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate phone number")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid phone number")
	}
	return &trimmed, nil
}
