package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/delivery-platform/internal/domain"
	apperrors "github.com/spec-kit/delivery-platform/pkg/util/errorutil"
)

func seedUser(t *testing.T, repo *memoryUserRepo, email string) *domain.User {
	t.Helper()
	user := &domain.User{Email: email, FullName: "Seed", PasswordHash: "x"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserService_UpdateProfile(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewUserService(repo, nil)
	user := seedUser(t, repo, "p@example.com")

	updated, err := svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{
		FullName:  "  New Name ",
		Addresses: []domain.Address{{Street: " 1 Main St ", City: "Springfield"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.FullName)
	require.Len(t, updated.Addresses, 1)
	assert.Equal(t, "1 Main St", updated.Addresses[0].Street)

	_, err = svc.UpdateProfile(context.Background(), user.ID, UpdateProfileInput{FullName: "X"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.UpdateProfile(context.Background(), 999, UpdateProfileInput{FullName: "Valid"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUserService_GrantRole(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewUserService(repo, nil)
	user := seedUser(t, repo, "g@example.com")

	updated, err := svc.GrantRole(context.Background(), user.ID, "role_admin")
	require.NoError(t, err)
	assert.True(t, updated.HasRole(domain.RoleAdmin))
	assert.True(t, updated.HasRole(domain.RoleCustomer))

	_, err = svc.GrantRole(context.Background(), user.ID, "SUPERUSER")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.GrantRole(context.Background(), 999, "USER")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUserService_Delete(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := NewUserService(repo, nil)
	user := seedUser(t, repo, "d@example.com")

	require.NoError(t, svc.Delete(context.Background(), user.ID))
	_, err := svc.Get(context.Background(), user.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.True(t, apperrors.HasCode(svc.Delete(context.Background(), user.ID), apperrors.CodeNotFound))
}
