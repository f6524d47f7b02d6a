package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/auratask/internal/config"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/dto"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/identity"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/models"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/store"
	"github.com/ahmetcoskunkizilkaya/auratask/internal/upgrade"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidInput       = errors.New("email required and password must be at least 8 characters")
	ErrGoogleUnavailable  = errors.New("google sign-in is not configured")
)

const (
	NextOnboarding = "/onboarding"
	NextDashboard  = "/dashboard"

	// MigrationFailedMessage is all a client learns about a failed upgrade.
	MigrationFailedMessage = "Account linking failed, your guest data was preserved"
	// GuestClaimedMessage is used when the guest was already merged into a
	// different account; its data lives there and this device forgot it.
	GuestClaimedMessage = "This guest session was already linked to another account"

	ReasonMigrationFailed  = "migration_failed"
	ReasonClaimedElsewhere = "claimed_by_other_account"

	guestEmailDomain = "@auratask.temp"
)

// AuthService signs members in and hands every successful sign-in to the
// upgrade orchestrator so the device's guest data follows the user.
type AuthService struct {
	db       *gorm.DB
	store    store.Store
	cfg      *config.Config
	google   *identity.GoogleVerifier
	upgrades *upgrade.Orchestrator
}

func NewAuthService(db *gorm.DB, st store.Store, cfg *config.Config, google *identity.GoogleVerifier, upgrades *upgrade.Orchestrator) *AuthService {
	return &AuthService{db: db, store: st, cfg: cfg, google: google, upgrades: upgrades}
}

func (s *AuthService) Register(ctx context.Context, guests upgrade.GuestState, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || len(req.Password) < 8 || strings.HasSuffix(email, guestEmailDomain) {
		return nil, ErrInvalidInput
	}

	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = strings.Split(email, "@")[0]
	}
	user := &models.User{
		Email:        email,
		Username:     username,
		Password:     string(hash),
		AuthProvider: models.ProviderEmail,
		Theme:        models.DefaultTheme,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.completeSignIn(ctx, guests, user)
}

func (s *AuthService) Login(ctx context.Context, guests upgrade.GuestState, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.store.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsGuest || user.Retired() || user.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.completeSignIn(ctx, guests, user)
}

// GoogleSignIn verifies a Google ID token, links or creates the member it
// belongs to and completes the sign-in.
func (s *AuthService) GoogleSignIn(ctx context.Context, guests upgrade.GuestState, req *dto.GoogleSignInRequest) (*dto.AuthResponse, error) {
	if s.google == nil || !s.google.Configured() {
		return nil, ErrGoogleUnavailable
	}
	if req.IDToken == "" {
		return nil, errors.New("id token is required")
	}

	claims, err := s.google.Verify(ctx, req.IDToken)
	if err != nil {
		slog.Error("google token verification failed", "action", "google_sign_in", "error", err)
		return nil, fmt.Errorf("failed to verify Google ID token: %w", err)
	}

	user, err := s.findOrCreateGoogleUser(ctx, claims)
	if err != nil {
		return nil, err
	}
	return s.completeSignIn(ctx, guests, user)
}

func (s *AuthService) findOrCreateGoogleUser(ctx context.Context, claims *identity.GoogleClaims) (*models.User, error) {
	subject := claims.Subject

	user, err := s.store.FindUserByGoogleSubject(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up Google user: %w", err)
	}

	email := strings.ToLower(claims.Email)
	if email != "" && claims.EmailVerified {
		existing, err := s.store.FindUserByEmail(ctx, email)
		if err == nil && !existing.IsGuest && !existing.Retired() {
			if err := s.store.UpdateUser(ctx, existing.ID, store.UserPatch{GoogleSubject: &subject}); err != nil {
				return nil, fmt.Errorf("failed to link Google account: %w", err)
			}
			existing.GoogleSubject = &subject
			return existing, nil
		}
	}
	if email == "" || !claims.EmailVerified {
		email = subject + "@users.google.auratask"
	}

	username := claims.Name
	if username == "" {
		username = strings.Split(email, "@")[0]
	}
	user = &models.User{
		Email:         email,
		Username:      username,
		AuthProvider:  models.ProviderGoogle,
		GoogleSubject: &subject,
		Theme:         models.DefaultTheme,
	}
	if claims.Picture != "" {
		user.Avatar = &claims.Picture
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create Google user: %w", err)
	}
	slog.Info("google user created", "user_id", user.ID.String())
	return user, nil
}

// completeSignIn runs the guest upgrade for this device, then issues tokens
// for the member. A failed upgrade never fails the sign-in.
func (s *AuthService) completeSignIn(ctx context.Context, guests upgrade.GuestState, user *models.User) (*dto.AuthResponse, error) {
	outcome := upgrade.NoGuest
	if guests != nil {
		outcome = s.upgrades.Upgrade(ctx, guests, user)
	}
	migrated := outcome == upgrade.Migrated

	if migrated {
		reloaded, err := s.store.FindUser(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload user: %w", err)
		}
		user = reloaded
	}

	resp, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	resp.GuestMigrated = migrated
	switch outcome {
	case upgrade.Failed:
		resp.GuestMigrationFailed = true
		resp.GuestMigrationReason = ReasonMigrationFailed
		resp.Message = MigrationFailedMessage
	case upgrade.ClaimedElsewhere:
		resp.GuestMigrationFailed = true
		resp.GuestMigrationReason = ReasonClaimedElsewhere
		resp.Message = GuestClaimedMessage
	}
	resp.Next = NextOnboarding
	if user.OnboardingDone {
		resp.Next = NextDashboard
	}
	return resp, nil
}

func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)
	db := s.db.WithContext(ctx)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	db.Model(&stored).Update("revoked", true)
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	user, err := s.store.FindUser(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	if user.IsGuest || user.Retired() {
		return nil, ErrInvalidToken
	}

	resp, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	resp.Next = NextOnboarding
	if user.OnboardingDone {
		resp.Next = NextDashboard
	}
	return resp, nil
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(req.RefreshToken)).
		Update("revoked", true).Error
}

func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.store.FindUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// GuestAccessToken issues an access token for a guest identity. Guests get no
// refresh token; the guest session cookie re-initialises them instead.
func (s *AuthService) GuestAccessToken(user *models.User) (string, error) {
	return s.generateAccessToken(user)
}

func ToUserResponse(u *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		AuthProvider:   u.AuthProvider,
		Avatar:         u.Avatar,
		Theme:          u.Theme,
		DarkMode:       u.DarkMode,
		AuraPoints:     u.AuraPoints,
		CurrentStreak:  u.CurrentStreak,
		LongestStreak:  u.LongestStreak,
		OnboardingDone: u.OnboardingDone,
		IsGuest:        u.IsGuest,
		UpgradedAt:     u.GuestUpgradedAt,
		UpgradedToID:   u.GuestUpgradedToID,
	}
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         ToUserResponse(user),
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      user.ID.String(),
		"email":    user.Email,
		"is_guest": user.IsGuest,
		"iat":      now.Unix(),
		"exp":      now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(rawToken),
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
