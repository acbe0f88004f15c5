// Package businessflow contains the core business logic and use cases for authentication workflows
package businessflow

import (
	"context"
	"strings"

	"github.com/revinity/pacing-targets/app/dto"
	"github.com/revinity/pacing-targets/app/services"
	"github.com/revinity/pacing-targets/models"
	"github.com/revinity/pacing-targets/repository"
	"github.com/revinity/pacing-targets/utils"
	"golang.org/x/crypto/bcrypt"
)

// AuthFlow handles user registration and authentication
type AuthFlow interface {
	Register(ctx context.Context, request *dto.RegisterRequest, metadata *ClientMetadata) (*dto.AuthTokensData, error)
	Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthTokensData, error)
	Refresh(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.AuthTokensData, error)
}

// AuthFlowImpl implements the auth business flow
type AuthFlowImpl struct {
	userRepo     repository.UserRepository
	tokenService services.TokenService
	bcryptCost   int
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	userRepo repository.UserRepository,
	tokenService services.TokenService,
	bcryptCost int,
) AuthFlow {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthFlowImpl{
		userRepo:     userRepo,
		tokenService: tokenService,
		bcryptCost:   bcryptCost,
	}
}

// Register creates a new user account and issues tokens
func (af *AuthFlowImpl) Register(ctx context.Context, request *dto.RegisterRequest, metadata *ClientMetadata) (*dto.AuthTokensData, error) {
	username := strings.TrimSpace(request.Username)
	email := strings.ToLower(strings.TrimSpace(request.Email))

	existing, err := af.userRepo.ByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, NewBusinessError("REGISTER_FAILED", "Registration failed", err)
	}
	if existing != nil {
		return nil, NewBusinessError("USER_ALREADY_EXISTS", "User already exists", ErrUserAlreadyExists)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(request.Password), af.bcryptCost)
	if err != nil {
		return nil, NewBusinessError("REGISTER_FAILED", "Registration failed", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(passwordHash),
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}

	if err := af.userRepo.Save(ctx, user); err != nil {
		// The unique index may reject a concurrent registration of the
		// same username or email.
		if repository.IsDuplicateKey(err) {
			return nil, NewBusinessError("USER_ALREADY_EXISTS", "User already exists", ErrUserAlreadyExists)
		}
		return nil, NewBusinessError("REGISTER_FAILED", "Registration failed", err)
	}

	return af.issueTokens(user)
}

// Login authenticates a user by username or email and password
func (af *AuthFlowImpl) Login(ctx context.Context, request *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthTokensData, error) {
	identifier := strings.TrimSpace(request.Identifier)

	user, err := af.userRepo.ByUsernameOrEmail(ctx, identifier, strings.ToLower(identifier))
	if err != nil {
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}
	if user == nil {
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid credentials", ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(request.Password)); err != nil {
		return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid credentials", ErrInvalidCredentials)
	}

	return af.issueTokens(user)
}

// Refresh exchanges a refresh token for a new token pair
func (af *AuthFlowImpl) Refresh(ctx context.Context, request *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.AuthTokensData, error) {
	claims, err := af.tokenService.ValidateToken(request.RefreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, NewBusinessError("TOKEN_INVALID", "Invalid refresh token", ErrInvalidCredentials)
	}

	userID, err := models.ParseUserID(claims.UserID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_INVALID", "Invalid refresh token", ErrInvalidCredentials)
	}

	user, err := af.userRepo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("REFRESH_FAILED", "Token refresh failed", err)
	}
	if user == nil {
		return nil, NewBusinessError("USER_NOT_FOUND", "User not found", ErrUserNotFound)
	}

	return af.issueTokens(user)
}

func (af *AuthFlowImpl) issueTokens(user *models.User) (*dto.AuthTokensData, error) {
	accessToken, refreshToken, err := af.tokenService.GenerateTokens(user.ID.Hex())
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate tokens", err)
	}

	return &dto.AuthTokensData{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    utils.AccessTokenTTLSeconds,
		User:         ToAuthUserDTO(*user),
	}, nil
}
