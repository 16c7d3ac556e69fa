package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/spormatch/models"
)

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	svc := NewAuthService(fakeUserRepo{store}, nil)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: " Ali.Veli@Example.com ", Password: "secret1", FullName: "Ali Veli"})
	require.NoError(t, err)
	assert.Equal(t, "ali.veli", user.Username)
	assert.Equal(t, "ali.veli@example.com", user.Email)
	assert.Equal(t, models.DefaultUserLevel, user.Level)
	assert.Equal(t, models.DefaultUserStatus, user.Status)
	assert.Empty(t, user.PasswordHash)
	require.NotNil(t, user.AvatarURL)
	assert.Contains(t, *user.AvatarURL, "name=Ali+Veli")
	assert.NotEqual(t, "secret1", store.users[user.ID].PasswordHash)

	for _, login := range []string{"ali.veli", "ALI.VELI@example.com"} {
		got, err := svc.Login(ctx, LoginInput{Login: login, Password: "secret1"})
		require.NoError(t, err, login)
		assert.Equal(t, user.ID, got.ID)
		assert.Empty(t, got.PasswordHash)
	}

	_, err = svc.Login(ctx, LoginInput{Login: "ali.veli", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Login: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidationAndConflicts(t *testing.T) {
	store := newMemStore()
	svc := NewAuthService(fakeUserRepo{store}, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "ali@example.com", Password: "secret1", FullName: "Ali"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"bad email", RegisterInput{Email: "ali-at-example", Password: "secret1", FullName: "Ali"}, ErrInvalidEmail},
		{"short password", RegisterInput{Email: "b@example.com", Password: "12345", FullName: "B"}, ErrPasswordTooShort},
		{"blank name", RegisterInput{Email: "b@example.com", Password: "secret1", FullName: "  "}, ErrValidationFailed},
		{"duplicate email", RegisterInput{Email: "ALI@example.com", Password: "secret1", FullName: "Ali"}, ErrUserEmailConflict},
		{"duplicate username", RegisterInput{Email: "ali@other.org", Password: "secret1", FullName: "Ali"}, ErrUsernameConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Len(t, store.users, 1)
}
