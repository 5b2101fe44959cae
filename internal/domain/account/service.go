package account

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"folio/app/internal/domain/errs"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes     = 72
	maxDisplayNameLength = 100
	minSecretLength      = 16
	defaultTokenTTL      = 24 * time.Hour
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,31}$`)

// ServiceOptions configures the account service.
type ServiceOptions struct {
	Repository Repository
	Secret     []byte
	TokenTTL   time.Duration
	HashCost   int
	Clock      func() time.Time
	Logger     *logrus.Logger
	Hub        *sentry.Hub
}

// Service registers users and issues bearer tokens.
type Service struct {
	repo      Repository
	secret    []byte
	ttl       time.Duration
	cost      int
	now       func() time.Time
	logger    *logrus.Logger
	sentryHub *sentry.Hub
}

// NewService validates opts and builds a Service.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Repository == nil {
		return nil, eris.New("account repository is required")
	}
	if len(opts.Secret) < minSecretLength {
		return nil, eris.Errorf("token secret must be at least %d bytes", minSecretLength)
	}

	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	cost := opts.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Service{
		repo:      opts.Repository,
		secret:    opts.Secret,
		ttl:       ttl,
		cost:      cost,
		now:       clock,
		logger:    opts.Logger,
		sentryHub: opts.Hub,
	}, nil
}

// Register creates an account. Email and username are stored lowercased.
func (s *Service) Register(ctx context.Context, email, username, password, displayName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.ToLower(strings.TrimSpace(username))
	displayName = strings.TrimSpace(displayName)

	v := &errs.ValidationError{}
	if address, err := mail.ParseAddress(email); err != nil || address.Address != email {
		v.Add("email", "must be a valid email address", email)
	}
	if !usernamePattern.MatchString(username) {
		v.Add("username", "must be 3-32 characters of lowercase letters, digits, '-' or '_' and start with a letter or digit", username)
	}
	switch {
	case utf8.RuneCountInString(password) < minPasswordLength:
		v.Add("password", "must be at least 8 characters", nil)
	case len(password) > maxPasswordBytes:
		v.Add("password", "must be at most 72 bytes", nil)
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		v.Add("display_name", "must be at most 100 characters", nil)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, eris.Wrap(err, "hashing password")
	}

	user := &User{
		Email:        email,
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if eris.Is(err, ErrAccountExists) {
			return nil, eris.Wrap(err, "registering account")
		}
		s.recordError(logrus.Fields{"username": username}, err, "creating account")
		return nil, eris.Wrap(errs.Persistence("creating account", err), "registering account")
	}

	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": username}).Info("account registered")
	}
	return user, nil
}

// Login verifies credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		s.recordError(logrus.Fields{"email": email}, err, "loading account")
		return "", nil, eris.Wrap(errs.Persistence("loading account", err), "logging in")
	}
	if user == nil {
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := signToken(s.secret, user, s.now(), s.ttl)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate validates a bearer token. Any failure is reported as errs.ErrUnauthorized.
func (s *Service) Authenticate(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, errs.ErrUnauthorized
	}

	identity, err := parseToken(s.secret, token, s.now)
	if err != nil {
		if s.logger != nil {
			s.logger.WithField("error", err.Error()).Debug("rejecting bearer token")
		}
		return Identity{}, errs.ErrUnauthorized
	}
	return identity, nil
}

// Profile returns the account behind identity.
func (s *Service) Profile(ctx context.Context, identity Identity) (*User, error) {
	if identity.UserID == 0 {
		return nil, errs.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, identity.UserID)
	if err != nil {
		s.recordError(logrus.Fields{"user_id": identity.UserID}, err, "loading account")
		return nil, eris.Wrap(errs.Persistence("loading account", err), "loading profile")
	}
	if user == nil {
		return nil, eris.Wrapf(errs.ErrNotFound, "user %d", identity.UserID)
	}
	return user, nil
}

func (s *Service) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if s.logger != nil {
		entry := s.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if s.sentryHub != nil {
		s.sentryHub.CaptureException(err)
	}
}
