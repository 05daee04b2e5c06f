package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"learnquest/internal/config"
	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	TokenTypeAccess   = "access"
	TokenTypeRefresh  = "refresh"
	minSecretKeyBytes = 32
)

var (
	ErrInvalidAuthState      = errors.New("invalid oauth state")
	ErrFailedToExchangeToken = errors.New("failed to exchange oauth token")
	ErrFailedToGetUserInfo   = errors.New("failed to get user info from google")
	ErrInvalidJWTToken       = errors.New("invalid jwt token")
)

// AuthService defines the interface for authentication operations.
type AuthService interface {
	GetGoogleLoginURL(state string) string
	// HandleGoogleCallback signs the user in (creating the account on first
	// login) and records the login as an activity event.
	HandleGoogleCallback(ctx context.Context, code string, receivedState string, expectedState string) (accessToken string, refreshToken string, user *domain.User, err error)
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error)
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken string, newRefreshToken string, err error)
}

// userInfoFetcher exchanges an authorization code for the Google profile.
type userInfoFetcher func(ctx context.Context, code string) (*dto.GoogleUserInfo, error)

type authServiceImpl struct {
	userRepo      domain.UserRepository
	gamification  GamificationService
	oauth2Config  *oauth2.Config
	jwtConfig     config.JWTConfig
	fetchUserInfo userInfoFetcher
	now           func() time.Time
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo domain.UserRepository, gamification GamificationService, appConfig *config.Config) (AuthService, error) {
	if len(appConfig.JWT.SecretKey) < minSecretKeyBytes {
		return nil, fmt.Errorf("jwt secret key must be at least %d bytes long", minSecretKeyBytes)
	}

	s := &authServiceImpl{
		userRepo:     userRepo,
		gamification: gamification,
		oauth2Config: &oauth2.Config{
			ClientID:     appConfig.GoogleOAuth.ClientID,
			ClientSecret: appConfig.GoogleOAuth.ClientSecret,
			RedirectURL:  appConfig.GoogleOAuth.RedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		jwtConfig: appConfig.JWT,
		now:       time.Now,
	}
	s.fetchUserInfo = s.fetchGoogleUserInfo
	return s, nil
}

func (s *authServiceImpl) GetGoogleLoginURL(state string) string {
	return s.oauth2Config.AuthCodeURL(state)
}

func (s *authServiceImpl) fetchGoogleUserInfo(ctx context.Context, code string) (*dto.GoogleUserInfo, error) {
	googleToken, err := s.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToExchangeToken, err)
	}

	client := s.oauth2Config.Client(ctx, googleToken)
	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToGetUserInfo, err)
	}
	defer resp.Body.Close()

	var userInfo dto.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &userInfo, nil
}

func (s *authServiceImpl) HandleGoogleCallback(ctx context.Context, code string, receivedState string, expectedState string) (string, string, *domain.User, error) {
	if receivedState != expectedState {
		return "", "", nil, ErrInvalidAuthState
	}

	info, err := s.fetchUserInfo(ctx, code)
	if err != nil {
		return "", "", nil, err
	}
	if info.ID == "" || info.Email == "" {
		return "", "", nil, errors.New("google user info is incomplete")
	}

	user, err := s.upsertGoogleUser(ctx, info)
	if err != nil {
		return "", "", nil, err
	}
	s.recordLogin(ctx, user)

	access, refresh, err := s.issuePair(ctx, user)
	if err != nil {
		return "", "", nil, err
	}
	return access, refresh, user, nil
}

// upsertGoogleUser creates the account on first login and otherwise refreshes
// the profile fields Google owns.
func (s *authServiceImpl) upsertGoogleUser(ctx context.Context, info *dto.GoogleUserInfo) (*domain.User, error) {
	user, err := s.userRepo.GetUserByGoogleID(ctx, info.ID)
	if err != nil {
		return nil, domain.NewInternalError("error fetching user by google_id", err)
	}

	if user == nil {
		user = domain.NewUser(info.ID, info.Email)
		user.Name = info.Name
		user.ProfilePictureURL = info.Picture
		if err := s.userRepo.CreateUser(ctx, user); err != nil {
			return nil, domain.NewInternalError("failed to create user", err)
		}
		logger.Get().Info("Account created", zap.String("userID", user.ID))
		return user, nil
	}

	if !user.IsActive {
		return nil, domain.NewForbiddenError("account is disabled")
	}
	user.Email = info.Email
	user.Name = info.Name
	user.ProfilePictureURL = info.Picture
	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return nil, domain.NewInternalError("failed to update user", err)
	}
	return user, nil
}

// recordLogin counts the login as the day's activity. Failures only cost the
// streak update, never the login.
func (s *authServiceImpl) recordLogin(ctx context.Context, user *domain.User) {
	if s.gamification == nil {
		return
	}
	activity, err := s.gamification.TouchActivity(ctx, user.ID, s.now())
	if err != nil {
		logger.Get().Warn("Login activity not recorded", zap.String("userID", user.ID), zap.Error(err))
		return
	}
	user.Streak = activity.Streak
	lastActive := activity.LastActiveAt
	user.LastActiveAt = &lastActive
}

func (s *authServiceImpl) issuePair(ctx context.Context, user *domain.User) (string, string, error) {
	access, err := s.CreateJWT(ctx, user, s.jwtConfig.AccessTokenTTL, TokenTypeAccess)
	if err != nil {
		return "", "", fmt.Errorf("create access token: %w", err)
	}
	refresh, err := s.CreateJWT(ctx, user, s.jwtConfig.RefreshTokenTTL, TokenTypeRefresh)
	if err != nil {
		return "", "", fmt.Errorf("create refresh token: %w", err)
	}
	return access, refresh, nil
}

func (s *authServiceImpl) CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error) {
	now := s.now()
	claims := dto.AuthClaims{
		UserID:    user.ID,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   user.ID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.SecretKey))
}

// ValidateJWT accepts only HS256 tokens signed with the configured secret.
func (s *authServiceImpl) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	claims := &dto.AuthClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(s.jwtConfig.SecretKey), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			logger.Get().Debug("JWT rejected", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}
	return claims, nil
}

func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshTokenString string) (string, string, error) {
	appLogger := logger.Get()
	claims, err := s.ValidateJWT(ctx, refreshTokenString)
	if err != nil {
		return "", "", domain.NewError(domain.CodeUnauthorized, "invalid refresh token", err)
	}
	if claims.TokenType != TokenTypeRefresh {
		return "", "", domain.NewUnauthorizedError("not a refresh token")
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		appLogger.Error("Failed to load user for refresh token", zap.String("userID", claims.UserID), zap.Error(err))
		return "", "", domain.NewInternalError("failed to load user for refresh token", err)
	}
	if user == nil {
		return "", "", domain.NewNotFoundError(fmt.Sprintf("User %s not found for refresh token", claims.UserID))
	}
	if !user.IsActive {
		return "", "", domain.NewForbiddenError("account is disabled")
	}

	access, refresh, err := s.issuePair(ctx, user)
	if err != nil {
		return "", "", err
	}
	appLogger.Debug("Token pair refreshed", zap.String("userID", user.ID))
	return access, refresh, nil
}
