// Package auth implements the signup, login and logout flows and the HTTP
// handlers that drive them.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"members/internal/password"
	"members/internal/session"
	"members/internal/users"
	"members/internal/validation"
)

var (
	// ErrInvalidInput is returned when signup fields fail validation
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidEmail is returned when the login email is malformed
	ErrInvalidEmail = errors.New("invalid email")
	// ErrInvalidCredentials is returned for unknown, ambiguous or mismatched credentials
	ErrInvalidCredentials = errors.New("invalid email/password combination")
)

// DefaultMemberImages are the image variants shown on the members page.
var DefaultMemberImages = []string{"ssm1.jpg", "ssm2.jpg", "ssm3.jpg"}

// MissingFieldsError lists every required signup field that was absent.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing fields: " + strings.Join(e.Fields, ", ")
}

// Has reports whether field is among the missing fields.
func (e *MissingFieldsError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// ImagePicker returns an index in [0, n).
type ImagePicker func(n int) int

// Recorder receives auth outcomes, typically for metrics.
type Recorder interface {
	AuthOutcome(op, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) AuthOutcome(string, string) {}

// Service defines the authentication service interface
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*Result, error)
	Login(ctx context.Context, req LoginRequest) (*Result, error)
	Logout(ctx context.Context, token string) error
	// CurrentSession returns the live session for token, or nil when the
	// token is anonymous. Only store failures are returned as errors.
	CurrentSession(ctx context.Context, token string) (*session.Session, error)
	IsAuthenticated(ctx context.Context, token string) (bool, error)
	MemberImage() string
}

// Option configures the service.
type Option func(*service)

// WithMemberImages overrides DefaultMemberImages.
func WithMemberImages(images []string) Option {
	return func(s *service) {
		if len(images) > 0 {
			s.images = images
		}
	}
}

// WithImagePicker overrides the uniform random picker.
func WithImagePicker(pick ImagePicker) Option {
	return func(s *service) {
		if pick != nil {
			s.pick = pick
		}
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(s *service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// service implements the Service interface
type service struct {
	users    users.Repository
	hasher   password.Hasher
	sessions session.Manager
	logger   *slog.Logger
	images   []string
	pick     ImagePicker
	recorder Recorder
}

// NewService creates a new authentication service
func NewService(repo users.Repository, hasher password.Hasher, sessions session.Manager, logger *slog.Logger, opts ...Option) Service {
	s := &service{
		users:    repo,
		hasher:   hasher,
		sessions: sessions,
		logger:   logger,
		images:   DefaultMemberImages,
		pick:     rand.IntN,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers a member and opens an authenticated session
func (s *service) Signup(ctx context.Context, req SignupRequest) (*Result, error) {
	if missing := validation.MissingFields(req.Name, req.Email, req.Password); len(missing) > 0 {
		s.recorder.AuthOutcome(OpSignup, OutcomeMissingFields)
		return nil, &MissingFieldsError{Fields: missing}
	}

	res := validation.ValidateSignup(validation.SignupFields{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if !res.OK {
		s.logger.WarnContext(ctx, "signup validation failed",
			"field", res.Field,
			"rule", res.Rule,
			"param", res.Param,
		)
		s.recorder.AuthOutcome(OpSignup, OutcomeInvalidInput)
		return nil, ErrInvalidInput
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		s.recorder.AuthOutcome(OpSignup, OutcomeError)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.users.Insert(ctx, req.Name, req.Email, hash)
	if err != nil {
		s.recorder.AuthOutcome(OpSignup, OutcomeError)
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	s.logger.InfoContext(ctx, "user inserted", "user_id", userID)

	token, err := s.sessions.Create(ctx, req.Email, req.Name)
	if err != nil {
		s.recorder.AuthOutcome(OpSignup, OutcomeError)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.recorder.AuthOutcome(OpSignup, OutcomeSuccess)
	return &Result{Token: token, UserID: userID, Email: req.Email, Name: req.Name}, nil
}

// Login verifies credentials and opens an authenticated session
func (s *service) Login(ctx context.Context, req LoginRequest) (*Result, error) {
	if res := validation.ValidateEmail(req.Email); !res.OK {
		s.logger.WarnContext(ctx, "login email rejected", "rule", res.Rule)
		s.recorder.AuthOutcome(OpLogin, OutcomeInvalidEmail)
		return nil, ErrInvalidEmail
	}

	found, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		s.recorder.AuthOutcome(OpLogin, OutcomeError)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if len(found) != 1 {
		s.logger.InfoContext(ctx, "login user not found", "matches", len(found))
		s.recorder.AuthOutcome(OpLogin, OutcomeInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	user := found[0]

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.logger.InfoContext(ctx, "login incorrect password", "user_id", user.ID)
		s.recorder.AuthOutcome(OpLogin, OutcomeInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, user.Email, user.Name)
	if err != nil {
		s.recorder.AuthOutcome(OpLogin, OutcomeError)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.recorder.AuthOutcome(OpLogin, OutcomeSuccess)
	return &Result{Token: token, UserID: user.ID, Email: user.Email, Name: user.Name}, nil
}

// Logout destroys the session behind token
func (s *service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		s.recorder.AuthOutcome(OpLogout, OutcomeError)
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	s.recorder.AuthOutcome(OpLogout, OutcomeSuccess)
	return nil
}

// CurrentSession returns the authenticated session for token, if any
func (s *service) CurrentSession(ctx context.Context, token string) (*session.Session, error) {
	if token == "" {
		return nil, nil
	}

	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if anonymous(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if !sess.Authenticated {
		return nil, nil
	}

	// Re-assert the store TTL; ExpiresAt stays fixed.
	if err := s.sessions.Touch(ctx, token); err != nil {
		if anonymous(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}
	return sess, nil
}

// IsAuthenticated reports whether token names a live authenticated session
func (s *service) IsAuthenticated(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := s.sessions.IsAuthenticated(ctx, token)
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return ok, nil
}

// anonymous reports whether a session error means "no session" rather than
// a store failure.
func anonymous(err error) bool {
	return errors.Is(err, session.ErrSessionNotFound) ||
		errors.Is(err, session.ErrSessionExpired) ||
		errors.Is(err, session.ErrInvalidSession)
}

// MemberImage draws one of the configured image variants uniformly
func (s *service) MemberImage() string {
	return s.images[s.pick(len(s.images))]
}
