package usecases

import (
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"query-server/auth"
	"query-server/entities"
	"query-server/repositories"
)

const (
	minPasswordLength = 6

	demoUsername = "demo"
	demoPassword = "demo123"
	demoEmail    = "demo@example.com"
)

// Session is what a successful sign-in hands back to the client.
type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Mode      entities.AppMode `json:"mode"`
	User      *entities.User   `json:"user,omitempty"`
}

// Profile describes the caller of GET /auth/me.
type Profile struct {
	ID        string           `json:"id"`
	Username  string           `json:"username"`
	Email     string           `json:"email,omitempty"`
	Mode      entities.AppMode `json:"mode"`
	Anonymous bool             `json:"anonymous"`
}

type AuthUseCase struct {
	Router  *repositories.Router
	Issuer  *auth.Issuer
	TTL     time.Duration
	History *HistoryUseCase
	logger  *slog.Logger
}

func NewAuthUseCase(router *repositories.Router, issuer *auth.Issuer, ttl time.Duration, history *HistoryUseCase) *AuthUseCase {
	return &AuthUseCase{
		Router:  router,
		Issuer:  issuer,
		TTL:     ttl,
		History: history,
		logger:  slog.Default().With("source", "auth"),
	}
}

// Register creates an account in the store that serves mode and signs it in.
func (uc *AuthUseCase) Register(mode entities.AppMode, username, email, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, fail(CodeFieldRequired)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, wrap(CodeInvalidEmail, err)
	}
	if len(password) < minPasswordLength {
		return nil, fail(CodePasswordTooShort)
	}

	store, err := uc.Router.For(mode)
	if err != nil {
		return nil, internal(err)
	}

	if _, err := store.Users.GetByUsername(username); err == nil {
		return nil, fail(CodeUsernameTaken)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internal(err)
	}
	if _, err := store.Users.GetByEmail(email); err == nil {
		return nil, fail(CodeEmailTaken)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internal(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, internal(err)
	}
	user := &entities.User{Username: username, Email: email, PasswordHash: hash}
	if err := store.Users.Create(user); err != nil {
		return nil, wrap(CodeRegisterError, err)
	}

	uc.logger.Info("user registered", "mode", mode, "username", username)
	return uc.issue(mode, user)
}

// Login signs a user in. Guest accounts are looked up by username; cloud
// accounts by email first and then by username.
func (uc *AuthUseCase) Login(mode entities.AppMode, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, fail(CodeFieldRequired)
	}

	store, err := uc.Router.For(mode)
	if err != nil {
		return nil, internal(err)
	}

	var user *entities.User
	if mode == entities.ModeAuthenticated {
		user, err = store.Users.GetByEmail(identifier)
		if errors.Is(err, repositories.ErrNotFound) {
			user, err = store.Users.GetByUsername(identifier)
		}
	} else {
		user, err = store.Users.GetByUsername(identifier)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fail(CodeUserNotFound)
	}
	if err != nil {
		return nil, internal(err)
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		uc.logger.Warn("failed login", "mode", mode, "identifier", identifier)
		return nil, fail(CodeLoginError)
	}
	return uc.issue(mode, user)
}

// ContinueAsGuest issues a token for an anonymous on-device owner.
func (uc *AuthUseCase) ContinueAsGuest(deviceID string) (*Session, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, fail(CodeFieldRequired)
	}
	p := auth.GuestPrincipal(deviceID)
	token, err := uc.Issuer.Generate(p, uc.TTL)
	if err != nil {
		return nil, internal(err)
	}
	return &Session{Token: token, ExpiresAt: time.Now().Add(uc.TTL), Mode: entities.ModeGuest}, nil
}

// ResetPassword replaces the password of a local account once the username
// and email match.
func (uc *AuthUseCase) ResetPassword(username, email, newPassword string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || newPassword == "" {
		return fail(CodeFieldRequired)
	}

	store, err := uc.Router.For(entities.ModeGuest)
	if err != nil {
		return internal(err)
	}
	user, err := store.Users.GetByUsername(username)
	if errors.Is(err, repositories.ErrNotFound) {
		return fail(CodeUserNotFound)
	}
	if err != nil {
		return internal(err)
	}
	if user.Email != email {
		return fail(CodeEmailMismatch)
	}
	if len(newPassword) < minPasswordLength {
		return fail(CodePasswordTooShort)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return internal(err)
	}
	user.PasswordHash = hash
	if err := store.Users.Update(user); err != nil {
		return internal(err)
	}
	uc.logger.Info("password reset", "username", username)
	return nil
}

// Me returns the caller's profile.
func (uc *AuthUseCase) Me(p auth.Principal) (*Profile, error) {
	if p.Anonymous() {
		return &Profile{ID: p.Subject, Username: p.Username, Mode: p.Mode, Anonymous: true}, nil
	}
	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return nil, internal(err)
	}
	user, err := store.Users.GetByID(p.Subject)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fail(CodeUserNotFound)
	}
	if err != nil {
		return nil, internal(err)
	}
	return &Profile{ID: user.ID, Username: user.Username, Email: user.Email, Mode: p.Mode}, nil
}

// DeleteAccount removes the caller's account together with its history and
// settings. Anonymous guests only lose their data. History goes through
// HistoryUseCase.Clear so cached lists and live clients see the removal.
func (uc *AuthUseCase) DeleteAccount(p auth.Principal) error {
	store, err := uc.Router.For(p.Mode)
	if err != nil {
		return internal(err)
	}
	if err := uc.History.Clear(p); err != nil {
		return err
	}
	if err := store.Config.DeleteAllByOwner(p.Subject); err != nil {
		return internal(err)
	}
	if !p.Anonymous() {
		if err := store.Users.Delete(p.Subject); err != nil {
			return internal(err)
		}
	}
	uc.logger.Info("account deleted", "mode", p.Mode, "owner", p.Subject)
	return nil
}

// SeedDemoUser makes sure the local store has the demo account.
func (uc *AuthUseCase) SeedDemoUser() error {
	store, err := uc.Router.For(entities.ModeGuest)
	if err != nil {
		return err
	}
	_, err = store.Users.GetByUsername(demoUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return err
	}
	if err := store.Users.Create(&entities.User{Username: demoUsername, Email: demoEmail, PasswordHash: hash}); err != nil {
		return err
	}
	uc.logger.Info("demo user created", "username", demoUsername)
	return nil
}

func (uc *AuthUseCase) issue(mode entities.AppMode, user *entities.User) (*Session, error) {
	p := auth.Principal{Subject: user.ID, Mode: mode, Username: user.Username}
	token, err := uc.Issuer.Generate(p, uc.TTL)
	if err != nil {
		return nil, internal(err)
	}
	return &Session{Token: token, ExpiresAt: time.Now().Add(uc.TTL), Mode: mode, User: user}, nil
}
