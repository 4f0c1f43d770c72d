package usecase_test

import (
	"context"
	"testing"

	"danicandles/internal/domain/model"
	repo "danicandles/internal/repository"
	"danicandles/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProfileUsecase_Resolve_Existing(t *testing.T) {
	profiles := new(ProfileRepoMock)
	uc := usecase.NewProfileUsecase(profiles, nil)

	profiles.On("FindByID", mock.Anything, testUserID).Return(model.Profile{UserID: testUserID, Role: model.RoleStaff}, nil).Once()

	p, err := uc.Resolve(context.Background(), buyer())
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, p.Role)
	profiles.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
}

func TestProfileUsecase_Resolve_CreatesCustomer(t *testing.T) {
	profiles := new(ProfileRepoMock)
	uc := usecase.NewProfileUsecase(profiles, []string{"dani@example.com"})

	profiles.On("FindByID", mock.Anything, testUserID).Return(model.Profile{}, repo.ErrNotFound).Once()
	profiles.On("CreateIfAbsent", mock.Anything, model.Profile{UserID: testUserID, Email: "buyer@example.com", Role: model.RoleCustomer}).Return(nil).Once()
	profiles.On("FindByID", mock.Anything, testUserID).Return(model.Profile{UserID: testUserID, Role: model.RoleCustomer}, nil).Once()

	p, err := uc.Resolve(context.Background(), buyer())
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, p.Role)
	profiles.AssertExpectations(t)
}

func TestProfileUsecase_Resolve_BootstrapAdmin(t *testing.T) {
	profiles := new(ProfileRepoMock)
	uc := usecase.NewProfileUsecase(profiles, []string{" Dani@Example.com "})

	profiles.On("FindByID", mock.Anything, testAdminID).Return(model.Profile{}, repo.ErrNotFound).Once()
	profiles.On("CreateIfAbsent", mock.Anything, mock.MatchedBy(func(p model.Profile) bool {
		return p.Role == model.RoleAdmin
	})).Return(nil).Once()
	profiles.On("FindByID", mock.Anything, testAdminID).Return(model.Profile{UserID: testAdminID, Role: model.RoleAdmin}, nil).Once()

	p, err := uc.Resolve(context.Background(), usecase.Principal{UserID: testAdminID, Email: "DANI@example.com"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, p.Role)
}

func TestProfileUsecase_Bootstrap(t *testing.T) {
	profiles := new(ProfileRepoMock)
	uc := usecase.NewProfileUsecase(profiles, []string{"dani@example.com", ""})

	profiles.On("PromoteByEmails", mock.Anything, []string{"dani@example.com"}, model.RoleAdmin).Return(int64(1), nil).Once()

	n, err := uc.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestProfileUsecase_Bootstrap_NoEmails(t *testing.T) {
	profiles := new(ProfileRepoMock)
	uc := usecase.NewProfileUsecase(profiles, nil)

	n, err := uc.Bootstrap(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	profiles.AssertNotCalled(t, "PromoteByEmails", mock.Anything, mock.Anything, mock.Anything)
}
