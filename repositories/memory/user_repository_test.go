package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/userauth-api/models"
	"github.com/upb/userauth-api/repositories"
)

func TestUserRepository_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	user := models.NewUser("Mike", "mike@example.com", "hash")
	require.NoError(t, repo.Insert(ctx, user))
	require.NotEmpty(t, user.ID)

	byEmail, err := repo.FindByEmail(ctx, "MIKE@Example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)

	byName, err := repo.FindByUsername(ctx, "mIKE")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, "Mike", byName.Username)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", byID.PasswordHash)

	missing, err := repo.FindByID(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_InsertDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Insert(ctx, models.NewUser("Mike", "mike@example.com", "hash")))

	tests := []struct {
		name      string
		user      *models.User
		wantField string
	}{
		{"same email different case", models.NewUser("other", "MIKE@example.COM", "hash"), repositories.FieldEmail},
		{"same username different case", models.NewUser("MIKE", "other@example.com", "hash"), repositories.FieldUsername},
		{"both taken reports email", models.NewUser("mike", "mike@example.com", "hash"), repositories.FieldEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Insert(ctx, tt.user)
			field, ok := repositories.DuplicateField(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantField, field)
		})
	}
	assert.Equal(t, 1, repo.Len())
}

func TestUserRepository_FindReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	user := models.NewUser("Mike", "mike@example.com", "hash")
	require.NoError(t, repo.Insert(ctx, user))

	found, _ := repo.FindByID(ctx, user.ID)
	found.PasswordHash = "tampered"

	again, _ := repo.FindByID(ctx, user.ID)
	assert.Equal(t, "hash", again.PasswordHash)
}

func TestUserRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	user := models.NewUser("Mike", "mike@example.com", "hash")
	require.NoError(t, repo.Insert(ctx, user))

	require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, "new-hash"))
	found, _ := repo.FindByID(ctx, user.ID)
	assert.Equal(t, "new-hash", found.PasswordHash)

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), repositories.ErrUserNotFound)
	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, user.ID, "x"), repositories.ErrUserNotFound)

	gone, err := repo.FindByEmail(ctx, "mike@example.com")
	assert.NoError(t, err)
	assert.Nil(t, gone)

	// freed keys can be registered again
	assert.NoError(t, repo.Insert(ctx, models.NewUser("mike", "MIKE@example.com", "hash")))
}

func TestUserRepository_ConcurrentInsertSameEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Insert(ctx, models.NewUser(fmt.Sprintf("user%d", i), "race@example.com", "hash"))
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, repo.Len())
}
