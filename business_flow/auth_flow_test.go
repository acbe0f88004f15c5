package businessflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/revinity/pacing-targets/app/dto"
	"github.com/revinity/pacing-targets/app/services"
	businessflow "github.com/revinity/pacing-targets/business_flow"
	apptest "github.com/revinity/pacing-targets/testing"
)

func newAuthFixture(t *testing.T) (*apptest.FakeUserRepository, services.TokenService, businessflow.AuthFlow) {
	t.Helper()

	tokenService, err := services.NewTokenService(
		time.Hour, 24*time.Hour,
		"pacing-targets-test", "pacing-targets-test",
		"test-secret-key-that-is-long-enough-0123456789",
	)
	require.NoError(t, err)

	userRepo := apptest.NewFakeUserRepository()
	return userRepo, tokenService, businessflow.NewAuthFlow(userRepo, tokenService, bcrypt.MinCost)
}

func registerUser(t *testing.T, flow businessflow.AuthFlow) *dto.AuthTokensData {
	t.Helper()

	tokens, err := flow.Register(context.Background(), &dto.RegisterRequest{
		Username: "jane.doe",
		Email:    "Jane@Example.com",
		Password: "SecurePass123",
	}, businessflow.NewClientMetadata("127.0.0.1", "test-agent"))
	require.NoError(t, err)
	return tokens
}

func TestAuthFlowRegister(t *testing.T) {
	ctx := context.Background()
	metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

	t.Run("issues tokens and normalizes the email", func(t *testing.T) {
		_, _, flow := newAuthFixture(t)

		tokens := registerUser(t, flow)

		assert.NotEmpty(t, tokens.AccessToken)
		assert.NotEmpty(t, tokens.RefreshToken)
		assert.Equal(t, "Bearer", tokens.TokenType)
		assert.Equal(t, "jane.doe", tokens.User.Username)
		assert.Equal(t, "jane@example.com", tokens.User.Email)
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		_, _, flow := newAuthFixture(t)
		registerUser(t, flow)

		_, err := flow.Register(ctx, &dto.RegisterRequest{
			Username: "jane.doe",
			Email:    "other@example.com",
			Password: "SecurePass123",
		}, metadata)
		require.Error(t, err)
		assert.True(t, businessflow.IsUserAlreadyExists(err))
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, _, flow := newAuthFixture(t)
		registerUser(t, flow)

		_, err := flow.Register(ctx, &dto.RegisterRequest{
			Username: "someone.else",
			Email:    "jane@example.com",
			Password: "SecurePass123",
		}, metadata)
		require.Error(t, err)
		assert.True(t, businessflow.IsUserAlreadyExists(err))
	})
}

func TestAuthFlowLogin(t *testing.T) {
	ctx := context.Background()
	metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

	t.Run("by username", func(t *testing.T) {
		_, _, flow := newAuthFixture(t)
		registerUser(t, flow)

		tokens, err := flow.Login(ctx, &dto.LoginRequest{
			Identifier: "jane.doe",
			Password:   "SecurePass123",
		}, metadata)
		require.NoError(t, err)
		assert.NotEmpty(t, tokens.AccessToken)
	})

	t.Run("by email in any case", func(t *testing.T) {
		_, _, flow := newAuthFixture(t)
		registerUser(t, flow)

		tokens, err := flow.Login(ctx, &dto.LoginRequest{
			Identifier: "JANE@example.com",
			Password:   "SecurePass123",
		}, metadata)
		require.NoError(t, err)
		assert.Equal(t, "jane.doe", tokens.User.Username)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, flow := newAuthFixture(t)

		_, err := flow.Login(ctx, &dto.LoginRequest{
			Identifier: "nobody",
			Password:   "SecurePass123",
		}, metadata)
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidCredentials(err))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, flow := newAuthFixture(t)
		registerUser(t, flow)

		_, err := flow.Login(ctx, &dto.LoginRequest{
			Identifier: "jane.doe",
			Password:   "WrongPass123",
		}, metadata)
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidCredentials(err))
	})
}

func TestAuthFlowRefresh(t *testing.T) {
	ctx := context.Background()
	metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")

	t.Run("exchanges a refresh token for a new pair", func(t *testing.T) {
		_, _, flow := newAuthFixture(t)
		tokens := registerUser(t, flow)

		refreshed, err := flow.Refresh(ctx, &dto.RefreshTokenRequest{
			RefreshToken: tokens.RefreshToken,
		}, metadata)
		require.NoError(t, err)

		assert.NotEmpty(t, refreshed.AccessToken)
		assert.Equal(t, "jane.doe", refreshed.User.Username)
	})

	t.Run("access token is not accepted as a refresh token", func(t *testing.T) {
		_, _, flow := newAuthFixture(t)
		tokens := registerUser(t, flow)

		_, err := flow.Refresh(ctx, &dto.RefreshTokenRequest{
			RefreshToken: tokens.AccessToken,
		}, metadata)
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidCredentials(err))
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, _, flow := newAuthFixture(t)

		_, err := flow.Refresh(ctx, &dto.RefreshTokenRequest{
			RefreshToken: "not.a.jwt",
		}, metadata)
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidCredentials(err))
	})
}
