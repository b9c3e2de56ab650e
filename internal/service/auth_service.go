package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/bumex/engagement-service/internal/auth"
	"github.com/bumex/engagement-service/internal/config"
	"github.com/bumex/engagement-service/internal/domain"
	"github.com/bumex/engagement-service/internal/events"
	"github.com/bumex/engagement-service/internal/mailer"
	"github.com/bumex/engagement-service/internal/repository"
	apperrors "github.com/bumex/engagement-service/pkg/util"
)

const maxOTPAttempts = 5

// AuthService coordinates the three-step login flow: password check, OTP
// dispatch, OTP verification. It also guards session resumption so a
// half-authenticated login can never be upgraded by replaying a warm token.
type AuthService struct {
	cfg        config.AuthConfig
	users      repository.UserRepository
	otps       repository.OTPRepository
	sessions   repository.SessionRepository
	resets     repository.PasswordResetRepository
	mail       mailer.Mailer
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingEntry
}

type pendingEntry struct {
	auth     *domain.PendingAuth
	attempts int
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	OTPRepo           repository.OTPRepository
	SessionRepo       repository.SessionRepository
	PasswordResetRepo repository.PasswordResetRepository
	Mailer            mailer.Mailer
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		cfg:        cfg.Auth,
		users:      deps.UserRepo,
		otps:       deps.OTPRepo,
		sessions:   deps.SessionRepo,
		resets:     deps.PasswordResetRepo,
		mail:       deps.Mailer,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL(), cfg.Auth.OTPTTL()),
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
		pending:    make(map[string]*pendingEntry),
	}
}

// VerifyCredentials runs step one of the login flow. The domain gate runs
// before any store lookup so disallowed domains learn nothing about account
// existence. Account-state rejections never leave a usable credential
// behind: no token is issued and no pending record is kept.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*domain.PendingAuth, string, error) {
	if !s.cfg.MatchesAllowedDomain(email) {
		return nil, "", apperrors.NewDomainRejected()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperrors.NewAccountNotFound()
		}
		return nil, "", apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", apperrors.NewInvalidCredentials()
	}
	if user.Blocked {
		return nil, "", apperrors.NewAccountBlocked()
	}
	if !user.Approved {
		return nil, "", apperrors.NewAccountPendingApproval()
	}

	pendingAuth := &domain.PendingAuth{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		User:      user,
		ExpiresAt: s.now().Add(s.cfg.OTPTTL()),
	}

	if err := s.issueCode(ctx, pendingAuth, events.EventOTPSent); err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	s.pending[pendingAuth.ID] = &pendingEntry{auth: pendingAuth}
	s.mu.Unlock()

	token, _, err := s.tokenMgr.GeneratePendingToken(pendingAuth.ID, user.ID)
	if err != nil {
		s.dropPending(pendingAuth.ID)
		return nil, "", apperrors.MapError(err)
	}
	return pendingAuth, token, nil
}

// ResendOTP regenerates the code for an in-flight login, invalidating the
// previous one, and re-dispatches the email.
func (s *AuthService) ResendOTP(ctx context.Context, pendingID string) error {
	entry := s.lookupPending(pendingID)
	if entry == nil {
		return apperrors.NewNoPendingAuth()
	}
	return s.issueCode(ctx, entry.auth, events.EventOTPResent)
}

// issueCode generates, persists, and emails a fresh code. Saving overwrites
// any prior record, so one code is active per user at a time.
func (s *AuthService) issueCode(ctx context.Context, pendingAuth *domain.PendingAuth, eventType events.EventType) error {
	code, err := auth.GenerateOTPCode(s.cfg.OTPLength)
	if err != nil {
		return apperrors.MapError(err)
	}

	record := &domain.OneTimeCode{
		UserID:    pendingAuth.UserID,
		Email:     pendingAuth.Email,
		CodeHash:  auth.HashOTPCode(code),
		IssuedAt:  s.now(),
		ExpiresAt: s.now().Add(s.cfg.OTPTTL()),
	}
	if err := s.otps.Save(ctx, record); err != nil {
		return apperrors.NewPersistenceFailed(err)
	}

	if err := s.mail.SendOneTimeCode(ctx, pendingAuth.Email, pendingAuth.Name, code); err != nil {
		return apperrors.NewNotificationDispatchFailed(err)
	}

	s.publish(ctx, events.Event{
		Type:    eventType,
		Actor:   events.Actor{UserID: pendingAuth.UserID, Name: pendingAuth.Name},
		Payload: events.OTPPayload{Email: pendingAuth.Email},
	})
	return nil
}

// VerifyOTPAndLogin runs step three: checks the submitted code against the
// stored record, consumes it, and mints a full session. Failures are
// audit-logged before the error surfaces. The adopted identity is the
// profile snapshot fetched at step one, so no second profile round-trip
// happens here.
func (s *AuthService) VerifyOTPAndLogin(ctx context.Context, pendingID, submittedCode string) (*domain.User, string, time.Time, error) {
	entry := s.lookupPending(pendingID)
	if entry == nil {
		return nil, "", time.Time{}, apperrors.NewNoPendingAuth()
	}
	pendingAuth := entry.auth

	record, err := s.otps.Get(ctx, pendingAuth.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			s.auditOTPFailure(ctx, pendingAuth, "no active code")
			return nil, "", time.Time{}, apperrors.NewInvalidCode()
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if record.Expired(s.now()) {
		s.auditOTPFailure(ctx, pendingAuth, "code expired")
		return nil, "", time.Time{}, apperrors.NewInvalidCode()
	}
	if !auth.VerifyOTPCode(record.CodeHash, submittedCode) {
		s.auditOTPFailure(ctx, pendingAuth, "code mismatch")
		if s.bumpAttempts(pendingID) >= maxOTPAttempts {
			s.dropPending(pendingID)
			return nil, "", time.Time{}, apperrors.NewTooManyAttempts()
		}
		return nil, "", time.Time{}, apperrors.NewInvalidCode()
	}

	// Consume the record before minting the session; this is what lets the
	// resumption guard pass for the session being created.
	if err := s.otps.Delete(ctx, pendingAuth.UserID); err != nil {
		return nil, "", time.Time{}, apperrors.NewPersistenceFailed(err)
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    pendingAuth.UserID,
		IssuedAt:  s.now(),
		ExpiresAt: s.now().Add(s.cfg.SessionTTL()),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, "", time.Time{}, apperrors.NewPersistenceFailed(err)
	}

	token, expiresAt, err := s.tokenMgr.GenerateSessionToken(session.ID, pendingAuth.UserID, pendingAuth.User.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	s.dropPending(pendingID)

	actor := events.Actor{UserID: pendingAuth.UserID, Name: pendingAuth.Name}
	s.publish(ctx, events.Event{Type: events.EventOTPVerified, Actor: actor, Payload: events.OTPPayload{Email: pendingAuth.Email}})
	s.publish(ctx, events.Event{Type: events.EventLogin, Actor: actor})

	return pendingAuth.User, token, expiresAt, nil
}

// AbortLogin discards the in-memory pending state. The stored OTP record is
// left to its own expiry; it is never proactively revoked on abandonment.
func (s *AuthService) AbortLogin(pendingID string) {
	s.dropPending(pendingID)
}

// ValidateSession implements auth.SessionGuard. Before trusting a warm
// session it re-checks for a pending unexpired OTP record for the user: one
// existing means the second factor was never completed, so the session is
// forcibly terminated. The record consumed during VerifyOTPAndLogin no
// longer exists, so a just-verified session passes without special casing.
func (s *AuthService) ValidateSession(ctx context.Context, claims *auth.Claims) (*domain.User, error) {
	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperrors.NewSessionExpired()
		}
		return nil, apperrors.MapError(err)
	}

	hasPendingOTP, err := s.otps.Exists(ctx, session.UserID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if hasPendingOTP {
		_ = s.sessions.Delete(ctx, session.ID)
		s.logger.Warn("session terminated: pending second factor", zap.String("user_id", session.UserID))
		return nil, apperrors.NewSessionExpired()
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		// Profile fetch errors are fatal to the attempt, never retried.
		_ = s.sessions.Delete(ctx, session.ID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewAccountNotFound()
		}
		return nil, apperrors.MapError(err)
	}
	if user.Blocked {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, apperrors.NewAccountBlocked()
	}
	if !user.Approved {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, apperrors.NewAccountPendingApproval()
	}
	return user, nil
}

// Logout revokes the server-side session.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{Type: events.EventLogout, Actor: events.Actor{UserID: claims.UserID}})
	return nil
}

// RequestPasswordReset persists a reset token and mails it. The same domain
// allow-list that gates login gates reset eligibility.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if !s.cfg.MatchesAllowedDomain(email) {
		return apperrors.NewDomainRejected()
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewAccountNotFound()
		}
		return apperrors.MapError(err)
	}

	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(time.Duration(s.cfg.PasswordResetTTLMinutes) * time.Minute),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return apperrors.NewPersistenceFailed(err)
	}
	if err := s.mail.SendPasswordReset(ctx, user.Email, user.Name, token.Token); err != nil {
		return apperrors.NewNotificationDispatchFailed(err)
	}
	return nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewInvalidCode()
		}
		return apperrors.MapError(err)
	}
	if token.UsedAt != nil || s.now().After(token.ExpiresAt) {
		return apperrors.NewInvalidCode()
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}
	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.NewPersistenceFailed(err)
	}
	return s.resets.MarkUsed(ctx, token.ID)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) lookupPending(pendingID string) *pendingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pending[pendingID]
	if !ok {
		return nil
	}
	if s.now().After(entry.auth.ExpiresAt) {
		delete(s.pending, pendingID)
		return nil
	}
	return entry
}

func (s *AuthService) bumpAttempts(pendingID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.pending[pendingID]
	if !ok {
		return 0
	}
	entry.attempts++
	return entry.attempts
}

func (s *AuthService) dropPending(pendingID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, pendingID)
}

func (s *AuthService) auditOTPFailure(ctx context.Context, pendingAuth *domain.PendingAuth, reason string) {
	s.publish(ctx, events.Event{
		Type:    events.EventOTPFailed,
		Actor:   events.Actor{UserID: pendingAuth.UserID, Name: pendingAuth.Name},
		Payload: events.OTPPayload{Email: pendingAuth.Email, Reason: reason},
	})
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}
