package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/student-task-portal/internal/metrics"
	"github.com/iliyamo/student-task-portal/internal/model"
	"github.com/iliyamo/student-task-portal/internal/repository"
	"github.com/iliyamo/student-task-portal/internal/utils"
)

// UserStore is the subset of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	StudentIDExists(ctx context.Context, studentID string) (bool, error)
	UpdateProfile(ctx context.Context, id uint64, p model.ProfileUpdate) (bool, error)
	UpdatePassword(ctx context.Context, id uint64, hash string) error
}

// SessionStore persists sessions keyed by token hash.
type SessionStore interface {
	Create(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	FindActive(ctx context.Context, tokenHash string, now time.Time) (*model.Session, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteAllForUser(ctx context.Context, userID uint64) error
}

// AuthConfig carries the secrets and lifetimes used when issuing tokens.
type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration // exp claim inside the token
	SessionTTL time.Duration // expires_at of the session row
	BcryptCost int
}

// AuthService verifies credentials and manages sessions.  A token is
// usable only while its signature and exp claim verify and a session row
// with a future expiry exists for its hash.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	cfg      AuthConfig
	log      *logrus.Logger
	now      func() time.Time
}

func NewAuthService(users UserStore, sessions SessionStore, cfg AuthConfig, log *logrus.Logger) *AuthService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = cfg.SessionTTL
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// LoginResult is returned by Authenticate.
type LoginResult struct {
	User  *model.User
	Token string
}

// Authenticate checks username and password and opens a new session.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		s.log.WithField("username", username).Info("login rejected")
		return nil, ErrInvalidCredentials
	}

	tok, err := utils.NewSessionToken(s.cfg.Secret, u.ID, u.Username, string(u.Role), s.cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	if err := s.sessions.Create(ctx, u.ID, utils.HashToken(tok.Token), s.now().Add(s.cfg.SessionTTL)); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("login")
	return &LoginResult{User: u, Token: tok.Token}, nil
}

// ResolveToken maps a bearer token to the identity of its owner.
//
// Errors: ErrTokenInvalid for a bad signature or malformed token;
// ErrSessionInvalid for an expired token or a missing/expired session;
// ErrUserNotFound when the owner no longer exists.
func (s *AuthService) ResolveToken(ctx context.Context, raw string) (*model.Identity, error) {
	claims, err := utils.ParseSessionToken(s.cfg.Secret, raw)
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, ErrSessionInvalid
		}
		return nil, ErrTokenInvalid
	}
	sess, err := s.sessions.FindActive(ctx, utils.HashToken(raw), s.now())
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if sess.UserID != claims.UserID {
		return nil, ErrSessionInvalid
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	return &model.Identity{ID: u.ID, Username: u.Username, Role: u.Role, Name: u.Name}, nil
}

// Logout deletes the session of raw.  A missing session is not an error.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return s.sessions.DeleteByHash(ctx, utils.HashToken(raw))
}

// RevokeAll ends every session of userID.
func (s *AuthService) RevokeAll(ctx context.Context, userID uint64) error {
	return s.sessions.DeleteAllForUser(ctx, userID)
}

// ChangePassword verifies current, stores the hash of next and revokes
// every session of the user, the caller's own included.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint64, current, next string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return ErrCurrentPasswordIncorrect
	}
	hash, err := utils.HashPassword(next, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.log.WithField("user_id", userID).Info("password changed, sessions revoked")
	return nil
}

// StudentRegistration is the input of RegisterStudent.  Empty optional
// fields take the student defaults.
type StudentRegistration struct {
	Name       string
	Username   string
	Password   string
	StudentID  string
	Department string
	Division   string
	Semester   string
}

// AdminRegistration is the input of RegisterAdmin.
type AdminRegistration struct {
	Name       string
	Username   string
	Password   string
	Department string
	Division   string
}

// RegisterStudent creates a student account.  Without an explicit
// student id one is generated from the clock.
func (s *AuthService) RegisterStudent(ctx context.Context, in StudentRegistration) (*model.User, error) {
	studentID := strings.TrimSpace(in.StudentID)
	if studentID != "" {
		taken, err := s.users.StudentIDExists(ctx, studentID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrStudentIDExists
		}
	} else {
		studentID = generateStudentID(s.now())
	}
	u := &model.User{
		Name:       strings.TrimSpace(in.Name),
		Username:   strings.TrimSpace(in.Username),
		Role:       model.RoleStudent,
		StudentID:  &studentID,
		Department: strPtr(orDefault(in.Department, "General Studies")),
		Division:   strPtr(orDefault(in.Division, "A")),
		Semester:   strPtr(orDefault(in.Semester, "1st")),
	}
	return s.register(ctx, u, in.Password)
}

// RegisterAdmin creates an administrator account.
func (s *AuthService) RegisterAdmin(ctx context.Context, in AdminRegistration) (*model.User, error) {
	u := &model.User{
		Name:       strings.TrimSpace(in.Name),
		Username:   strings.TrimSpace(in.Username),
		Role:       model.RoleAdmin,
		Department: strPtr(orDefault(in.Department, "Administration")),
		Division:   strPtr(orDefault(in.Division, "Admin")),
		Semester:   strPtr("N/A"),
	}
	return s.register(ctx, u, in.Password)
}

func (s *AuthService) register(ctx context.Context, u *model.User, password string) (*model.User, error) {
	taken, err := s.users.UsernameExists(ctx, u.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameExists
	}
	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.AvatarURL = strPtr(avatarURL(u.Name))
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now

	// The unique indexes still catch a concurrent registration that
	// slipped past the existence checks.
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user registered")
	return u, nil
}

// Profile returns the stored user.
func (s *AuthService) Profile(ctx context.Context, userID uint64) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile writes the non-empty fields of p.  Blank fields keep
// their stored value; if nothing is left ErrNoProfileFields is returned.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint64, p model.ProfileUpdate) (*model.User, error) {
	p = model.ProfileUpdate{
		Name:                         strings.TrimSpace(p.Name),
		Department:                   strings.TrimSpace(p.Department),
		Division:                     strings.TrimSpace(p.Division),
		Semester:                     strings.TrimSpace(p.Semester),
		EmergencyContactName:         strings.TrimSpace(p.EmergencyContactName),
		EmergencyContactRelationship: strings.TrimSpace(p.EmergencyContactRelationship),
		EmergencyContactPhone:        strings.TrimSpace(p.EmergencyContactPhone),
	}
	changed, err := s.users.UpdateProfile(ctx, userID, p)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, ErrNoProfileFields
	}
	return s.users.GetByID(ctx, userID)
}

// generateStudentID builds STU-<last 8 digits of the unix millisecond clock>.
func generateStudentID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return "STU-" + ms
}

func avatarURL(name string) string {
	initial := "U"
	if r, _ := utf8.DecodeRuneInString(name); r != utf8.RuneError {
		initial = strings.ToUpper(string(r))
	}
	return "https://placehold.co/256x256/E0F2FE/0891B2?text=" + initial
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func strPtr(s string) *string { return &s }
