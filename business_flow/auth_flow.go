package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/Orochi-CRM/app/dto"
	"github.com/amirphl/Orochi-CRM/app/services"
	"github.com/amirphl/Orochi-CRM/models"
	"github.com/amirphl/Orochi-CRM/repository"
	"github.com/amirphl/Orochi-CRM/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthFlow handles registration, login and session management
type AuthFlow interface {
	Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.AuthResponse, error)
	Logout(ctx context.Context, userID uint, sessionID string, metadata *ClientMetadata) error
	ListSessions(ctx context.Context, userID uint, currentSessionID string) (*dto.ListSessionsResponse, error)
	RevokeSession(ctx context.Context, userID uint, sessionID string, metadata *ClientMetadata) error
	// ValidateAccessToken checks the token and that its session is still live
	ValidateAccessToken(ctx context.Context, token string) (*services.TokenClaims, error)
}

// AuthFlowConfig tunes hashing and new-account defaults
type AuthFlowConfig struct {
	BcryptCost        int
	DefaultEmailLimit int
	SessionTTL        time.Duration
	AccessTokenTTL    time.Duration
}

// AuthFlowImpl implements the authentication business flow
type AuthFlowImpl struct {
	userRepo     repository.UserRepository
	sessionRepo  repository.UserSessionRepository
	auditRepo    repository.AuditLogRepository
	tokenService services.TokenService
	db           *gorm.DB
	cfg          AuthFlowConfig
}

// NewAuthFlow creates a new auth flow instance
func NewAuthFlow(
	userRepo repository.UserRepository,
	sessionRepo repository.UserSessionRepository,
	auditRepo repository.AuditLogRepository,
	tokenService services.TokenService,
	db *gorm.DB,
	cfg AuthFlowConfig,
) AuthFlow {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = utils.RefreshTokenTTL
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = utils.AccessTokenTTL
	}
	return &AuthFlowImpl{
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		auditRepo:    auditRepo,
		tokenService: tokenService,
		db:           db,
		cfg:          cfg,
	}
}

// Register creates an account and signs it in
func (af *AuthFlowImpl) Register(ctx context.Context, req *dto.RegisterRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	email := utils.NormalizeEmail(req.Email)

	var resp *dto.AuthResponse
	var user *models.User
	err := repository.WithTransaction(ctx, af.db, func(txCtx context.Context) error {
		existing, err := af.userRepo.ByEmail(txCtx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailAlreadyExists
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), af.cfg.BcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user = &models.User{
			Name:         strings.TrimSpace(req.Name),
			Email:        email,
			PasswordHash: string(hash),
			EmailLimit:   af.cfg.DefaultEmailLimit,
			Plan:         "free",
			IsActive:     utils.ToPtr(true),
		}
		if err := af.userRepo.Save(txCtx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailAlreadyExists
			}
			return err
		}

		pair, err := af.createSession(txCtx, user.ID, metadata)
		if err != nil {
			return err
		}

		resp = &dto.AuthResponse{User: ToAuthUserDTO(*user), Session: *pair}
		return nil
	})
	if err != nil {
		if IsEmailAlreadyExists(err) {
			return nil, NewBusinessError("EMAIL_ALREADY_EXISTS", "An account with this email already exists", err)
		}
		return nil, NewBusinessError("REGISTRATION_FAILED", "Registration failed", err)
	}

	msg := fmt.Sprintf("User registered successfully: %d", user.ID)
	_ = createAuditLog(ctx, af.auditRepo, &user.ID, models.AuditActionSignupCompleted, msg, true, nil, metadata)

	return resp, nil
}

// Login authenticates with email and password and opens a new session
func (af *AuthFlowImpl) Login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	var user *models.User

	resp, err := af.login(ctx, req, metadata, &user)
	if err != nil {
		var userID *uint
		if user != nil {
			userID = &user.ID
		}
		errMsg := fmt.Sprintf("Login failed: %s", err.Error())
		_ = createAuditLog(ctx, af.auditRepo, userID, models.AuditActionLoginFailed, errMsg, false, &errMsg, metadata)

		// Unknown accounts and bad passwords share one message
		if IsUserNotFound(err) || IsIncorrectPassword(err) {
			return nil, NewBusinessError("INVALID_CREDENTIALS", "Invalid email or password", err)
		}
		if IsAccountInactive(err) {
			return nil, NewBusinessError("ACCOUNT_INACTIVE", "Account is inactive", err)
		}
		return nil, NewBusinessError("LOGIN_FAILED", "Login failed", err)
	}

	msg := fmt.Sprintf("User logged in successfully: %d", user.ID)
	_ = createAuditLog(ctx, af.auditRepo, &user.ID, models.AuditActionLoginSuccess, msg, true, nil, metadata)

	return resp, nil
}

func (af *AuthFlowImpl) login(ctx context.Context, req *dto.LoginRequest, metadata *ClientMetadata, found **models.User) (*dto.AuthResponse, error) {
	var resp *dto.AuthResponse

	err := repository.WithTransaction(ctx, af.db, func(txCtx context.Context) error {
		user, err := af.userRepo.ByEmail(txCtx, req.Email)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		*found = user

		if !utils.IsTrue(user.IsActive) {
			return ErrAccountInactive
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			return ErrIncorrectPassword
		}

		pair, err := af.createSession(txCtx, user.ID, metadata)
		if err != nil {
			return err
		}
		if err := af.userRepo.UpdateLastLogin(txCtx, user.ID); err != nil {
			return err
		}

		resp = &dto.AuthResponse{User: ToAuthUserDTO(*user), Session: *pair}
		return nil
	})

	return resp, err
}

// Refresh exchanges a refresh token for a new pair bound to the same session
func (af *AuthFlowImpl) Refresh(ctx context.Context, req *dto.RefreshTokenRequest, metadata *ClientMetadata) (*dto.AuthResponse, error) {
	claims, access, refresh, err := af.tokenService.RefreshToken(req.RefreshToken)
	if err != nil {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", fmt.Errorf("%w: %w", ErrInvalidToken, err))
	}

	session, err := af.liveSession(ctx, claims.SessionID, claims.UserID)
	if err != nil {
		return nil, err
	}

	user, err := af.userRepo.ByID(ctx, claims.UserID)
	if err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", err)
	}
	if user == nil || !utils.IsTrue(user.IsActive) {
		return nil, NewBusinessError("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token", ErrInvalidToken)
	}

	if err := af.sessionRepo.Touch(ctx, session.ID); err != nil {
		return nil, NewBusinessError("TOKEN_REFRESH_FAILED", "Token refresh failed", err)
	}

	msg := fmt.Sprintf("Token refreshed for session %s", session.UUID)
	_ = createAuditLog(ctx, af.auditRepo, &user.ID, models.AuditActionTokenRefreshed, msg, true, nil, metadata)

	return &dto.AuthResponse{
		User:    ToAuthUserDTO(*user),
		Session: af.tokenPair(access, refresh, session.UUID),
	}, nil
}

// Logout revokes the session the caller authenticated with
func (af *AuthFlowImpl) Logout(ctx context.Context, userID uint, sessionID string, metadata *ClientMetadata) error {
	if err := af.revoke(ctx, userID, sessionID); err != nil {
		return err
	}

	msg := fmt.Sprintf("User logged out: %d", userID)
	_ = createAuditLog(ctx, af.auditRepo, &userID, models.AuditActionLogout, msg, true, nil, metadata)
	return nil
}

func (af *AuthFlowImpl) ListSessions(ctx context.Context, userID uint, currentSessionID string) (*dto.ListSessionsResponse, error) {
	sessions, err := af.sessionRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("SESSION_LIST_FAILED", "Failed to fetch sessions", err)
	}

	resp := &dto.ListSessionsResponse{Sessions: make([]dto.SessionDTO, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, ToSessionDTO(*s, currentSessionID))
	}
	return resp, nil
}

// RevokeSession logs out one of the caller's sessions
func (af *AuthFlowImpl) RevokeSession(ctx context.Context, userID uint, sessionID string, metadata *ClientMetadata) error {
	if err := af.revoke(ctx, userID, sessionID); err != nil {
		return err
	}

	msg := fmt.Sprintf("Session revoked: %s", sessionID)
	_ = createAuditLog(ctx, af.auditRepo, &userID, models.AuditActionSessionRevoked, msg, true, nil, metadata)
	return nil
}

func (af *AuthFlowImpl) ValidateAccessToken(ctx context.Context, token string) (*services.TokenClaims, error) {
	claims, err := af.tokenService.ValidateToken(token)
	if err != nil {
		return nil, NewBusinessError("INVALID_TOKEN", "Invalid or expired token", fmt.Errorf("%w: %w", ErrInvalidToken, err))
	}
	if claims.TokenType != services.TokenTypeAccess {
		return nil, NewBusinessError("INVALID_TOKEN", "Invalid or expired token", ErrInvalidToken)
	}

	session, err := af.liveSession(ctx, claims.SessionID, claims.UserID)
	if err != nil {
		return nil, err
	}
	_ = af.sessionRepo.Touch(ctx, session.ID)

	return claims, nil
}

func (af *AuthFlowImpl) revoke(ctx context.Context, userID uint, sessionID string) error {
	id, err := utils.ParseUUID(sessionID)
	if err != nil {
		return NewBusinessError("SESSION_NOT_FOUND", "Session not found", ErrSessionNotFound)
	}

	session, err := af.sessionRepo.ByUUID(ctx, id)
	if err != nil {
		return NewBusinessError("SESSION_REVOKE_FAILED", "Failed to revoke session", err)
	}
	if session == nil || session.UserID != userID {
		return NewBusinessError("SESSION_NOT_FOUND", "Session not found", ErrSessionNotFound)
	}

	revoked, err := af.sessionRepo.Deactivate(ctx, session.ID, userID)
	if err != nil {
		return NewBusinessError("SESSION_REVOKE_FAILED", "Failed to revoke session", err)
	}
	if !revoked {
		return NewBusinessError("SESSION_NOT_FOUND", "Session not found", ErrSessionNotFound)
	}
	return nil
}

func (af *AuthFlowImpl) liveSession(ctx context.Context, sessionID string, userID uint) (*models.UserSession, error) {
	id, err := utils.ParseUUID(sessionID)
	if err != nil {
		return nil, NewBusinessError("INVALID_TOKEN", "Invalid or expired token", ErrInvalidToken)
	}

	session, err := af.sessionRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("SESSION_LOOKUP_FAILED", "Failed to fetch session", err)
	}
	if session == nil || session.UserID != userID {
		return nil, NewBusinessError("SESSION_NOT_FOUND", "Session not found", ErrSessionNotFound)
	}
	if !session.IsValid() {
		return nil, NewBusinessError("SESSION_EXPIRED", "Session expired", ErrSessionExpired)
	}
	return session, nil
}

// createSession stores a session row and issues tokens carrying its UUID
func (af *AuthFlowImpl) createSession(ctx context.Context, userID uint, metadata *ClientMetadata) (*dto.TokenPairDTO, error) {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = utils.FirstNonEmpty(metadata.IPAddress, ipAddress)
		userAgent = metadata.UserAgent
	}

	session := &models.UserSession{
		UUID:      uuid.New(),
		UserID:    userID,
		IPAddress: &ipAddress,
		UserAgent: &userAgent,
		IsActive:  utils.ToPtr(true),
		ExpiresAt: utils.UTCNowAdd(af.cfg.SessionTTL),
	}
	if err := af.sessionRepo.Save(ctx, session); err != nil {
		return nil, err
	}

	access, refresh, err := af.tokenService.GenerateTokens(userID, session.UUID.String())
	if err != nil {
		return nil, err
	}

	pair := af.tokenPair(access, refresh, session.UUID)
	return &pair, nil
}

func (af *AuthFlowImpl) tokenPair(access, refresh string, sessionID uuid.UUID) dto.TokenPairDTO {
	return dto.TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(af.cfg.AccessTokenTTL.Seconds()),
		SessionID:    sessionID.String(),
	}
}
