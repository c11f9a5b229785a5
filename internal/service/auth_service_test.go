package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-payments/internal/core/domain"
	"storefront-payments/internal/core/ports"
	"storefront-payments/internal/core/ports/mocks"
	"storefront-payments/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupAuthService(t *testing.T) (
	*AuthServiceImpl,
	*mocks.MockOperatorRepository,
	*mocks.MockHashService,
	*mocks.MockTokenService,
) {
	ctrl := gomock.NewController(t)
	operatorRepo := mocks.NewMockOperatorRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	return NewAuthService(operatorRepo, hashSvc, tokenSvc), operatorRepo, hashSvc, tokenSvc
}

func TestAuthService_CreateOperator_Success(t *testing.T) {
	svc, operatorRepo, hashSvc, _ := setupAuthService(t)
	ctx := context.Background()

	operatorRepo.EXPECT().GetByUsername(ctx, "ops-admin").Return(nil, nil)
	hashSvc.EXPECT().Hash("correct-horse-battery").Return("$argon2id$hashed", nil)
	operatorRepo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, op *domain.Operator) error {
		assert.Equal(t, "ops-admin", op.Username)
		assert.Equal(t, "$argon2id$hashed", op.PasswordHash)
		return nil
	})

	op, err := svc.CreateOperator(ctx, " ops-admin ", "correct-horse-battery")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, op.ID)
	assert.Equal(t, "ops-admin", op.Username)
}

func TestAuthService_CreateOperator_Validation(t *testing.T) {
	svc, _, _, _ := setupAuthService(t)

	_, err := svc.CreateOperator(context.Background(), "ab", "correct-horse-battery")
	assert.True(t, apperror.HasCode(err, "REQ_001"))

	_, err = svc.CreateOperator(context.Background(), "ops-admin", "short")
	assert.True(t, apperror.HasCode(err, "REQ_001"))
}

func TestAuthService_CreateOperator_DuplicateUsername(t *testing.T) {
	svc, operatorRepo, hashSvc, _ := setupAuthService(t)
	ctx := context.Background()

	operatorRepo.EXPECT().GetByUsername(ctx, "ops-admin").Return(&domain.Operator{Username: "ops-admin"}, nil)

	_, err := svc.CreateOperator(ctx, "ops-admin", "correct-horse-battery")
	assert.True(t, apperror.HasCode(err, "AUTH_002"))

	operatorRepo.EXPECT().GetByUsername(ctx, "ops-other").Return(nil, nil)
	hashSvc.EXPECT().Hash(gomock.Any()).Return("hash", nil)
	operatorRepo.EXPECT().Create(ctx, gomock.Any()).Return(ports.ErrDuplicateUsername)

	_, err = svc.CreateOperator(ctx, "ops-other", "correct-horse-battery")
	assert.True(t, apperror.HasCode(err, "AUTH_002"), "unique violation maps to the same error")
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, operatorRepo, hashSvc, tokenSvc := setupAuthService(t)
	ctx := context.Background()
	op := &domain.Operator{ID: uuid.New(), Username: "ops", PasswordHash: "stored"}
	expiry := time.Now().Add(8 * time.Hour)

	operatorRepo.EXPECT().GetByUsername(ctx, "ops").Return(op, nil)
	hashSvc.EXPECT().Verify("pw", "stored").Return(true, nil)
	tokenSvc.EXPECT().Generate(op.ID, "ops").Return("jwt-token", expiry, nil)

	token, exp, err := svc.Login(ctx, "ops", "pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, expiry, exp)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc, operatorRepo, _, _ := setupAuthService(t)
	ctx := context.Background()

	operatorRepo.EXPECT().GetByUsername(ctx, "ghost").Return(nil, nil)

	_, _, err := svc.Login(ctx, "ghost", "pw")
	assert.True(t, apperror.HasCode(err, "AUTH_001"))
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, operatorRepo, hashSvc, _ := setupAuthService(t)
	ctx := context.Background()

	operatorRepo.EXPECT().GetByUsername(ctx, "ops").Return(&domain.Operator{Username: "ops", PasswordHash: "stored"}, nil)
	hashSvc.EXPECT().Verify("bad", "stored").Return(false, nil)

	_, _, err := svc.Login(ctx, "ops", "bad")
	assert.True(t, apperror.HasCode(err, "AUTH_001"))
}

func TestAuthService_Login_RepositoryError(t *testing.T) {
	svc, operatorRepo, _, _ := setupAuthService(t)
	ctx := context.Background()

	operatorRepo.EXPECT().GetByUsername(ctx, "ops").Return(nil, errors.New("db down"))

	_, _, err := svc.Login(ctx, "ops", "pw")
	assert.True(t, apperror.HasCode(err, apperror.CodeInternal))
}
