package auth

import (
	"time"

	"gorm.io/gorm"

	"github.com/cleanco/platform/internal/audit"
	"github.com/cleanco/platform/internal/models"
	"github.com/cleanco/platform/internal/store"
	"github.com/cleanco/platform/internal/tenant"
	"github.com/cleanco/platform/pkg/apperrors"
	"github.com/cleanco/platform/pkg/ids"
)

type Service struct {
	keys             *KeyPair
	users            store.Users
	sessions         store.Sessions
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
}

func NewService(keys *KeyPair, users store.Users, sessions store.Sessions, accessTokenTTL, refreshTokenTTL time.Duration) *Service {
	return &Service{keys: keys, users: users, sessions: sessions, accessTokenTTL: accessTokenTTL, refreshTokenTTL: refreshTokenTTL}
}

type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Authenticate verifies an org-scoped email+password and, on success,
// issues a fresh Session and token pair. A legacy-scheme verify rehashes
// the stored password before returning.
func (s *Service) Authenticate(tx *gorm.DB, orgID, email, password, ip, userAgent, deviceFP string) (*Tokens, *models.User, error) {
	user, err := s.users.ByEmail(tx, orgID, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || user.Deactivated {
		return nil, nil, apperrors.Unauthenticated("invalid_credentials", "email or password is incorrect")
	}

	ok, rehash, rehashScheme, err := VerifyPassword(user.HashScheme, user.PasswordHash, password)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, apperrors.Unauthenticated("invalid_credentials", "email or password is incorrect")
	}
	if rehash != "" {
		if err := s.users.UpdatePassword(tx, orgID, user.ID, rehash, rehashScheme); err != nil {
			return nil, nil, err
		}
	}

	membership, err := s.users.MembershipFor(tx, orgID, user.ID)
	if err != nil {
		return nil, nil, err
	}
	role := ""
	if membership != nil {
		role = string(membership.Role)
	}

	tokens, err := s.issueSession(tx, user, orgID, role, "", ip, userAgent, deviceFP)
	if err != nil {
		return nil, nil, err
	}

	_ = audit.Write(tx, orgID, audit.Event{
		PrincipalKind: tenant.PrincipalOrgUser,
		PrincipalID:   user.ID,
		Event:         "auth.login.success",
		TargetType:    "user",
		TargetID:      user.ID,
		Detail:        map[string]string{"email": email, "ip": ip},
	})
	return tokens, user, nil
}

func (s *Service) issueSession(tx *gorm.DB, user *models.User, orgID, role, predecessorID, ip, userAgent, deviceFP string) (*Tokens, error) {
	sessionID, err := ids.New(ids.PrefixSession, 20)
	if err != nil {
		return nil, err
	}
	jti, err := GenerateRandomToken(16)
	if err != nil {
		return nil, err
	}
	rawRefresh, refreshHash, err := NewRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &models.Session{
		ID:                sessionID,
		UserID:            user.ID,
		OrgID:             orgID,
		AccessJTI:         jti,
		RefreshHash:       refreshHash,
		IssuedAt:          now,
		ExpiresAt:         now.Add(s.accessTokenTTL),
		RefreshExpiresAt:  now.Add(s.refreshTokenTTL),
		PredecessorID:     predecessorID,
		DeviceFingerprint: deviceFP,
		IP:                ip,
		UserAgent:         userAgent,
	}
	if err := s.sessions.Create(tx, sess); err != nil {
		return nil, err
	}

	access, err := s.keys.IssueAccessToken(user.ID, orgID, role, sessionID, jti, s.accessTokenTTL)
	if err != nil {
		return nil, err
	}

	return &Tokens{AccessToken: access, RefreshToken: sessionID + "." + rawRefresh, ExpiresAt: sess.ExpiresAt}, nil
}

// Refresh rotates a session: the presented refresh token is checked against
// its Session's hash, the old session is revoked, and exactly one new
// session/token pair is issued. A second concurrent caller presenting the
// same (now-revoked) token gets an UNAUTHENTICATED "refresh_token_replayed"
// error, and every session of that user is revoked too — a stolen-and-reused
// token kills the whole chain, not just its immediate successor.
func (s *Service) Refresh(tx *gorm.DB, presented string) (*Tokens, *models.User, error) {
	sessionID, rawRefresh, err := splitRefreshToken(presented)
	if err != nil {
		return nil, nil, apperrors.Unauthenticated("invalid_refresh_token", "malformed refresh token")
	}

	sess, err := s.sessions.ByID(tx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil || sess.RefreshHash != HashRefreshToken(rawRefresh) {
		return nil, nil, apperrors.Unauthenticated("invalid_refresh_token", "refresh token not recognized")
	}
	if !sess.RefreshActive(time.Now()) {
		return nil, nil, apperrors.Unauthenticated("refresh_token_expired", "refresh token is no longer active")
	}

	rows, err := s.sessions.RevokeByID(tx, sess.ID, "rotated")
	if err != nil {
		return nil, nil, err
	}
	if rows == 0 {
		// Lost the race to revoke: someone else rotated this session
		// first. Treat as replay and kill the whole lineage.
		_ = s.sessions.RevokeAllForUser(tx, sess.OrgID, sess.UserID, "replay_detected")
		return nil, nil, apperrors.Unauthenticated("refresh_token_replayed", "refresh token already used")
	}

	user, err := s.users.ByID(tx, sess.OrgID, sess.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || user.Deactivated {
		return nil, nil, apperrors.Unauthenticated("invalid_credentials", "user no longer active")
	}
	membership, err := s.users.MembershipFor(tx, sess.OrgID, user.ID)
	if err != nil {
		return nil, nil, err
	}
	role := ""
	if membership != nil {
		role = string(membership.Role)
	}

	tokens, err := s.issueSession(tx, user, sess.OrgID, role, sess.ID, sess.IP, sess.UserAgent, sess.DeviceFingerprint)
	if err != nil {
		return nil, nil, err
	}

	_ = audit.Write(tx, sess.OrgID, audit.Event{
		PrincipalKind: tenant.PrincipalOrgUser,
		PrincipalID:   user.ID,
		Event:         "auth.session.rotated",
		TargetType:    "session",
		TargetID:      sess.ID,
	})
	return tokens, user, nil
}

// Revoke ends one session (logout) or, with allSessions, every active
// session for the user (force-logout-everywhere after a password change or
// a suspected compromise).
func (s *Service) Revoke(tx *gorm.DB, orgID, userID, sessionID string, allSessions bool, reason string) error {
	if allSessions {
		return s.sessions.RevokeAllForUser(tx, orgID, userID, reason)
	}
	_, err := s.sessions.RevokeByID(tx, sessionID, reason)
	return err
}

func (s *Service) ChangePassword(tx *gorm.DB, orgID, userID, currentPassword, newPassword string) error {
	user, err := s.users.ByID(tx, orgID, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.NotFound("user_not_found", "user does not exist")
	}
	ok, _, _, err := VerifyPassword(user.HashScheme, user.PasswordHash, currentPassword)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Unauthenticated("invalid_credentials", "current password is incorrect")
	}
	hash, scheme, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(tx, orgID, userID, hash, scheme); err != nil {
		return err
	}
	if err := s.sessions.RevokeAllForUser(tx, orgID, userID, "password_changed"); err != nil {
		return err
	}
	return audit.Write(tx, orgID, audit.Event{
		PrincipalKind: tenant.PrincipalOrgUser,
		PrincipalID:   userID,
		Event:         "auth.password.changed",
		TargetType:    "user",
		TargetID:      userID,
	})
}

func splitRefreshToken(presented string) (sessionID, raw string, err error) {
	for i := 0; i < len(presented); i++ {
		if presented[i] == '.' {
			return presented[:i], presented[i+1:], nil
		}
	}
	return "", "", apperrors.Validation("malformed_refresh_token", "refresh token missing session prefix")
}
