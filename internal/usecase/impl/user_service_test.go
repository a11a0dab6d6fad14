package impl

import (
	"context"
	"strings"
	"testing"

	"recipes/internal/domain/entity"
	domainerrors "recipes/internal/domain/errors"
	"recipes/internal/domain/repository"
	mockRepo "recipes/internal/mocks/repository"
	mockSvc "recipes/internal/mocks/service"
	"recipes/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// userServiceFixtures holds all test dependencies for user service tests.
type userServiceFixtures struct {
	service   usecase.UserUsecase
	txManager *mockRepo.MockTransactionManager
	userRepo  *mockRepo.MockUserRepository
	hasher    *mockSvc.MockPasswordHasher
}

func createTestUserService(t *testing.T) userServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)
	userRepo := mockRepo.NewMockUserRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)

	service := NewUserService(UserServiceParams{
		TxManager: txManager,
		UserRepo:  userRepo,
		Hasher:    hasher,
		Logger:    newDiscardLogger(),
	})

	return userServiceFixtures{
		service:   service,
		txManager: txManager,
		userRepo:  userRepo,
		hasher:    hasher,
	}
}

func assertAppMessage(t *testing.T, err error, want string) {
	t.Helper()

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError in chain, got %v", err)
	assert.Equal(t, want, appErr.Message())
}

func TestUserService_Signup_Success(t *testing.T) {
	fx := createTestUserService(t)

	ctx := context.Background()
	bio := "Loves soup"
	input := &usecase.SignupInput{Username: "julia", Password: "s3cret", Bio: &bio}

	fx.hasher.EXPECT().Hash("s3cret").Return("hashed_password", nil)

	expectExecute(t, ctx, fx.txManager, func(factory *mockRepo.MockRepositoryFactory) {
		txUserRepo := mockRepo.NewMockUserRepository(t)
		factory.EXPECT().UserRepo().Return(txUserRepo)

		txUserRepo.EXPECT().FindByUsername(ctx, "julia").Return(nil, repository.ErrUserNotFound)
		txUserRepo.EXPECT().
			Create(ctx, mock.AnythingOfType("*entity.User")).
			Run(func(_ context.Context, user *entity.User) {
				user.ID = 1
			}).
			Return(nil)
	})

	user, err := fx.service.Signup(ctx, input)

	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "julia", user.Username)
	assert.Equal(t, "hashed_password", user.PasswordHash)
	assert.Nil(t, user.ImageURL)
	require.NotNil(t, user.Bio)
	assert.Equal(t, bio, *user.Bio)
}

func TestUserService_Signup_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		input usecase.SignupInput
	}{
		{name: "missing username", input: usecase.SignupInput{Password: "pw"}},
		{name: "missing password", input: usecase.SignupInput{Username: "julia"}},
		{name: "both missing", input: usecase.SignupInput{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestUserService(t)

			user, err := fx.service.Signup(context.Background(), &tt.input)

			assert.Nil(t, user)
			assert.ErrorIs(t, err, domainerrors.ErrSignupFieldsRequired)
			assertAppMessage(t, err, "Username and password are required.")
		})
	}
}

func TestUserService_Signup_UsernameTaken(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.hasher.EXPECT().Hash("pw").Return("hashed", nil)

	expectExecute(t, ctx, fx.txManager, func(factory *mockRepo.MockRepositoryFactory) {
		txUserRepo := mockRepo.NewMockUserRepository(t)
		factory.EXPECT().UserRepo().Return(txUserRepo)
		txUserRepo.EXPECT().FindByUsername(ctx, "julia").Return(&entity.User{ID: 3, Username: "julia"}, nil)
	})

	user, err := fx.service.Signup(ctx, &usecase.SignupInput{Username: "julia", Password: "pw"})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, domainerrors.ErrUsernameTaken)
	assertAppMessage(t, err, "Username already exists.")
}

func TestUserService_Signup_UniqueViolationOnInsert(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.hasher.EXPECT().Hash("pw").Return("hashed", nil)

	expectExecute(t, ctx, fx.txManager, func(factory *mockRepo.MockRepositoryFactory) {
		txUserRepo := mockRepo.NewMockUserRepository(t)
		factory.EXPECT().UserRepo().Return(txUserRepo)
		txUserRepo.EXPECT().FindByUsername(ctx, "julia").Return(nil, repository.ErrUserNotFound)
		txUserRepo.EXPECT().
			Create(ctx, mock.AnythingOfType("*entity.User")).
			Return(errors.Wrap(domainerrors.ErrUsernameTaken, "username already exists"))
	})

	_, err := fx.service.Signup(ctx, &usecase.SignupInput{Username: "julia", Password: "pw"})

	assert.ErrorIs(t, err, domainerrors.ErrUsernameTaken)
}

func TestUserService_Signup_LookupFailure(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	dbErr := errors.New("database connection failed")

	fx.hasher.EXPECT().Hash("pw").Return("hashed", nil)

	expectExecute(t, ctx, fx.txManager, func(factory *mockRepo.MockRepositoryFactory) {
		txUserRepo := mockRepo.NewMockUserRepository(t)
		factory.EXPECT().UserRepo().Return(txUserRepo)
		txUserRepo.EXPECT().FindByUsername(ctx, "julia").Return(nil, dbErr)
	})

	_, err := fx.service.Signup(ctx, &usecase.SignupInput{Username: "julia", Password: "pw"})

	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "failed to execute signup transaction")
}

func TestUserService_Signup_HashFailure(t *testing.T) {
	fx := createTestUserService(t)

	fx.hasher.EXPECT().Hash("pw").Return("", errors.New("bcrypt failure"))

	_, err := fx.service.Signup(context.Background(), &usecase.SignupInput{Username: "julia", Password: "pw"})

	assert.ErrorIs(t, err, domainerrors.ErrPasswordHashFailed)
}

func TestUserService_Signup_PasswordTooLong(t *testing.T) {
	fx := createTestUserService(t)

	_, err := fx.service.Signup(context.Background(), &usecase.SignupInput{
		Username: "julia",
		Password: strings.Repeat("p", entity.MaxPasswordBytes+1),
	})

	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	assertAppMessage(t, err, "Password must be at most 72 bytes long")
}

func TestUserService_Signup_UsernameTooLong(t *testing.T) {
	fx := createTestUserService(t)

	fx.hasher.EXPECT().Hash("pw").Return("hashed", nil)

	_, err := fx.service.Signup(context.Background(), &usecase.SignupInput{
		Username: strings.Repeat("u", entity.MaxUsernameLength+1),
		Password: "pw",
	})

	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	assertAppMessage(t, err, "Username must be at most 50 characters long")
}

func TestUserService_Login_Success(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	stored := &entity.User{ID: 4, Username: "julia", PasswordHash: "hashed"}

	fx.userRepo.EXPECT().FindByUsername(ctx, "julia").Return(stored, nil)
	fx.hasher.EXPECT().Check("pw", "hashed").Return(true)

	user, err := fx.service.Login(ctx, &usecase.LoginInput{Username: "julia", Password: "pw"})

	require.NoError(t, err)
	assert.Same(t, stored, user)
}

func TestUserService_Login_WrongPassword(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByUsername(ctx, "julia").Return(&entity.User{ID: 4, PasswordHash: "hashed"}, nil)
	fx.hasher.EXPECT().Check("bad", "hashed").Return(false)

	user, err := fx.service.Login(ctx, &usecase.LoginInput{Username: "julia", Password: "bad"})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	assertAppMessage(t, err, "Invalid credentials")
}

func TestUserService_Login_UnknownUserComparesDummyHash(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()

	fx.userRepo.EXPECT().FindByUsername(ctx, "ghost").Return(nil, repository.ErrUserNotFound).Twice()
	// The dummy hash is computed once and reused.
	fx.hasher.EXPECT().Hash(dummyPassword).Return("dummy-hash", nil).Once()
	fx.hasher.EXPECT().Check("pw", "dummy-hash").Return(false).Twice()

	for range 2 {
		user, err := fx.service.Login(ctx, &usecase.LoginInput{Username: "ghost", Password: "pw"})

		assert.Nil(t, user)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
		assertAppMessage(t, err, "Invalid credentials")
	}
}

func TestUserService_Login_RepositoryFailure(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	dbErr := errors.New("database connection failed")

	fx.userRepo.EXPECT().FindByUsername(ctx, "julia").Return(nil, dbErr)

	_, err := fx.service.Login(ctx, &usecase.LoginInput{Username: "julia", Password: "pw"})

	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestUserService_CurrentUser(t *testing.T) {
	fx := createTestUserService(t)
	ctx := context.Background()
	stored := &entity.User{ID: 4, Username: "julia"}

	fx.userRepo.EXPECT().FindByID(ctx, int64(4)).Return(stored, nil)
	fx.userRepo.EXPECT().FindByID(ctx, int64(5)).Return(nil, repository.ErrUserNotFound)

	user, err := fx.service.CurrentUser(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "julia", user.Username)

	_, err = fx.service.CurrentUser(ctx, 5)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}
