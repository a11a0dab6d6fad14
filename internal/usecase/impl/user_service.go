// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	deliverycontext "recipes/internal/delivery/context"
	"recipes/internal/domain/entity"
	domainerrors "recipes/internal/domain/errors"
	"recipes/internal/domain/repository"
	"recipes/internal/domain/service"
	"recipes/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// dummyPassword is hashed once and checked against when a login names an unknown user,
// so both failure paths pay for a bcrypt comparison.
const dummyPassword = "recipes-dummy-password"

// userService implements the UserUsecase interface.
type userService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	hasher    service.PasswordHasher
	logger    *slog.Logger

	dummyHashOnce sync.Once
	dummyHash     string
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	UserRepo  repository.UserRepository
	Hasher    service.PasswordHasher
	Logger    *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager: params.TxManager,
		userRepo:  params.UserRepo,
		hasher:    params.Hasher,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Signup hashes the password and creates the user inside a transaction.
func (srv *userService) Signup(ctx context.Context, input *usecase.SignupInput) (*entity.User, error) {
	if input.Username == "" || input.Password == "" {
		return nil, errors.Wrap(domainerrors.ErrSignupFieldsRequired, "signup rejected")
	}
	if len(input.Password) > entity.MaxPasswordBytes {
		msg := fmt.Sprintf("Password must be at most %d bytes long", entity.MaxPasswordBytes)

		return nil, errors.Wrap(domainerrors.ErrValidationFailed.WithMessage(msg), "signup rejected")
	}

	srv.log(ctx).Info("Starting signup", slog.String("username", input.Username))

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during signup", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	newUser := &entity.User{
		Username:     input.Username,
		PasswordHash: hashedPassword,
		ImageURL:     input.ImageURL,
		Bio:          input.Bio,
	}
	if verr := entity.ValidateNewUser(newUser); verr != nil {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed.WithMessage(verr.Message), verr.Error())
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		_, err := userRepo.FindByUsername(ctx, input.Username)
		if err == nil {
			return errors.Wrap(domainerrors.ErrUsernameTaken, "signup rejected")
		}
		if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to look up username")
		}

		// A concurrent signup can still win the race; the unique index reports it as ErrUsernameTaken.
		return userRepo.Create(ctx, newUser)
	})
	if err != nil {
		if !errors.Is(err, domainerrors.ErrUsernameTaken) {
			srv.log(ctx).Error("Failed to execute signup transaction", slog.String("username", input.Username), slog.Any("error", err))
		}

		return nil, errors.Wrap(err, "failed to execute signup transaction")
	}

	srv.log(ctx).Debug("Signup completed", slog.Int64("userID", newUser.ID))

	return newUser, nil
}

// Login verifies a username/password pair.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*entity.User, error) {
	user, err := srv.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(err, "failed to find user")
		}

		srv.hasher.Check(input.Password, srv.getDummyHash())
		srv.log(ctx).Debug("Login failed", slog.String("reason", "unknown username"))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Debug("Login failed", slog.String("reason", "password mismatch"), slog.Int64("userID", user.ID))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	srv.log(ctx).Debug("Login succeeded", slog.Int64("userID", user.ID))

	return user, nil
}

// CurrentUser loads the user bound to an authenticated session.
func (srv *userService) CurrentUser(ctx context.Context, userID int64) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUnauthorized, "session user no longer exists")
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

func (srv *userService) getDummyHash() string {
	srv.dummyHashOnce.Do(func() {
		hash, err := srv.hasher.Hash(dummyPassword)
		if err != nil {
			srv.logger.Warn("Failed to prepare dummy password hash", slog.Any("error", err))

			return
		}
		srv.dummyHash = hash
	})

	return srv.dummyHash
}
