package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/auth"
	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

const (
	msgUsernameTaken = "Sorry, username in use, choose another one"
	msgEmailTaken    = "Sorry, email in use, choose another one"
)

// ActivationPublisher delivers activation mails. *amqp.Client and
// *amqp.LogPublisher both satisfy it.
type ActivationPublisher interface {
	PublishActivation(ctx context.Context, msg *amqp.ActivationMail) error
	Close() error
}

// AccountConfig carries the settings the account flows need.
type AccountConfig struct {
	BaseURL         string
	DefaultCurrency string
}

// AccountService registers, activates and authenticates users.
type AccountService struct {
	store     *storage.Store
	tokens    *auth.TokenIssuer
	sessions  *auth.Sessions
	publisher ActivationPublisher
	cfg       AccountConfig
	logger    *log.Logger
}

func NewAccountService(store *storage.Store, tokens *auth.TokenIssuer, sessions *auth.Sessions, publisher ActivationPublisher, cfg AccountConfig, logger *log.Logger) *AccountService {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = core.DefaultCurrency
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if logger == nil {
		logger = log.Default()
	}
	return &AccountService{
		store:     store,
		tokens:    tokens,
		sessions:  sessions,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.WithComponent(log.ComponentAccount),
	}
}

// CreateUser hashes password and inserts the user together with its
// preference in one transaction.
func (s *AccountService) CreateUser(ctx context.Context, u core.User, password string) (core.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, err
	}
	u.PasswordHash = hash

	var created core.User
	err = s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		created, err = q.CreateUser(ctx, u)
		if err != nil {
			return err
		}
		_, err = q.CreatePreference(ctx, created.ID, s.cfg.DefaultCurrency)
		return err
	})
	if err != nil {
		return core.User{}, err
	}
	return created, nil
}

// Register validates the form, creates an inactive user and sends the
// activation link. Field problems come back as FormErrors with a nil error.
func (s *AccountService) Register(ctx context.Context, form auth.RegistrationForm) (core.User, auth.FormErrors, error) {
	form.Normalize()
	errs := form.Validate()
	if _, ok := errs["username"]; !ok {
		taken, err := s.store.UsernameTaken(ctx, form.Username)
		if err != nil {
			return core.User{}, nil, err
		}
		if taken {
			errs["username"] = msgUsernameTaken
		}
	}
	if _, ok := errs["email"]; !ok {
		taken, err := s.store.EmailTaken(ctx, form.Email)
		if err != nil {
			return core.User{}, nil, err
		}
		if taken {
			errs["email"] = msgEmailTaken
		}
	}
	if errs.Any() {
		return core.User{}, errs, nil
	}

	user, err := s.CreateUser(ctx, core.User{Username: form.Username, Email: form.Email}, form.Password)
	if errors.Is(err, core.ErrDuplicate) {
		return core.User{}, auth.FormErrors{"username": msgUsernameTaken}, nil
	}
	if err != nil {
		return core.User{}, nil, fmt.Errorf("register: %w", err)
	}
	s.logger.InfoContext(ctx, "User registered",
		log.FieldUserID, user.ID,
		log.FieldUsername, user.Username,
		log.FieldOperation, log.OpRegister)

	if err := s.sendActivation(ctx, user); err != nil {
		// The account exists; the user can ask an admin to activate it.
		s.logger.ErrorContext(ctx, "Failed to send activation mail",
			log.FieldUserID, user.ID,
			log.FieldError, err)
	}
	return user, auth.FormErrors{}, nil
}

func (s *AccountService) sendActivation(ctx context.Context, u core.User) error {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "No activation publisher, skipping activation mail")
		return nil
	}
	token, err := s.tokens.IssueActivation(u.ID)
	if err != nil {
		return err
	}
	mail := amqp.NewActivationMail(u.ID, u.Username, u.Email, s.ActivationLink(token), time.Now().Add(auth.ActivationTTL))
	return s.publisher.PublishActivation(ctx, mail)
}

// ActivationLink is the absolute URL that activates the token's user.
func (s *AccountService) ActivationLink(token string) string {
	return s.cfg.BaseURL + "/authentication/activate/" + token
}

// Activate marks the token's user active. Activating twice is harmless.
func (s *AccountService) Activate(ctx context.Context, token string) (core.User, error) {
	id, err := s.tokens.ParseActivation(token)
	if err != nil {
		return core.User{}, err
	}
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	if user.Active {
		return user, nil
	}
	if err := s.store.ActivateUser(ctx, id); err != nil {
		return core.User{}, err
	}
	user.Active = true
	s.logger.InfoContext(ctx, "User activated",
		log.FieldUserID, user.ID,
		log.FieldOperation, log.OpActivate)
	return user, nil
}

// Login checks the credentials of an active user and opens a session.
func (s *AccountService) Login(ctx context.Context, username, password string) (storage.Session, core.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, core.ErrNotFound) {
		return storage.Session{}, core.User{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return storage.Session{}, core.User{}, err
	}
	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return storage.Session{}, core.User{}, err
	}
	if !ok {
		return storage.Session{}, core.User{}, core.ErrInvalidCredentials
	}
	if !user.Active {
		return storage.Session{}, core.User{}, core.ErrInactiveUser
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return storage.Session{}, core.User{}, err
	}
	s.logger.InfoContext(ctx, "User logged in",
		log.FieldUserID, user.ID,
		log.FieldOperation, log.OpLogin)
	return sess, user, nil
}

func (s *AccountService) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// Authenticate resolves a session cookie value, see auth.Sessions.Resolve.
func (s *AccountService) Authenticate(ctx context.Context, token string) (storage.Session, core.User, bool, error) {
	return s.sessions.Resolve(ctx, token)
}

// SessionTTL is the lifetime given to new and renewed sessions.
func (s *AccountService) SessionTTL() time.Duration {
	return s.sessions.TTL()
}

// CheckUsername validates a username for the live form check. A malformed
// name fails with core.ErrValidation, a taken one also matches
// core.ErrDuplicate.
func (s *AccountService) CheckUsername(ctx context.Context, username string) error {
	if msg := auth.CheckUsername(username); msg != "" {
		return &core.ValidationError{Field: "username", Message: msg}
	}
	taken, err := s.store.UsernameTaken(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return &core.ValidationError{Field: "username", Message: msgUsernameTaken, Err: core.ErrDuplicate}
	}
	return nil
}

func (s *AccountService) CheckEmail(ctx context.Context, email string) error {
	if msg := auth.CheckEmail(email); msg != "" {
		return &core.ValidationError{Field: "email", Message: msg}
	}
	taken, err := s.store.EmailTaken(ctx, email)
	if err != nil {
		return err
	}
	if taken {
		return &core.ValidationError{Field: "email", Message: msgEmailTaken, Err: core.ErrDuplicate}
	}
	return nil
}

// DeleteUser removes the named user and everything they own.
func (s *AccountService) DeleteUser(ctx context.Context, username string) error {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.store.DeleteUser(ctx, user.ID)
}

// Close releases the activation publisher.
func (s *AccountService) Close() error {
	if s.publisher == nil {
		return nil
	}
	if err := s.publisher.Close(); err != nil {
		return fmt.Errorf("close account service: %w", err)
	}
	return nil
}
