// Package services contains the application services of the uniportal
// client. This file defines the authentication service: startup
// verification, login, logout, forced expiry, token refresh and the
// server-side session list.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/uniportal/internal/client/client"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/client/session"
	"github.com/dmitrijs2005/uniportal/internal/client/tokenstore"
	"github.com/dmitrijs2005/uniportal/internal/common"
	"github.com/dmitrijs2005/uniportal/internal/logging"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSessionExpired   = errors.New("session expired, please log in again")
	ErrRoleUnresolved   = errors.New("role could not be resolved")
)

// GenericLoginFailure is shown when the server gave no usable reason.
const GenericLoginFailure = "login failed: check credentials and server status"

// LoginError is returned by Login. Its message is safe to show to the user.
type LoginError struct {
	Message string
	err     error
}

func (e *LoginError) Error() string { return e.Message }
func (e *LoginError) Unwrap() error { return e.err }

func newLoginError(err error) *LoginError {
	msg := GenericLoginFailure
	if apiErr, ok := client.AsAPIError(err); ok && apiErr.ServerMessage() {
		msg = "login failed: " + apiErr.Message
	}
	return &LoginError{Message: msg, err: err}
}

// AuthService defines the session lifecycle operations.
//
// Contract:
//   - Verify: decide the startup state from the stored credential with at
//     most one probe; any doubt ends unauthenticated with an empty store.
//   - Login: exchange credentials, store the pair, then resolve the role
//     with the returned access token.
//   - Logout: best-effort remote invalidation, then local clear, then the
//     state flip. The order is fixed.
//   - Expire: Logout without the remote call, used after an auth failure.
//   - Guard: turn an auth failure into Expire + ErrSessionExpired.
//   - ResolveRole: retry role resolution for a login whose role lookup
//     failed, using the stored credential.
type AuthService interface {
	Verify(ctx context.Context) (session.State, error)
	Login(ctx context.Context, username string, password []byte) (models.Profile, models.DashboardContext, error)
	Logout(ctx context.Context) error
	Expire(ctx context.Context) error
	ResolveRole(ctx context.Context) (models.Profile, models.DashboardContext, error)
	Refresh(ctx context.Context) error
	Sessions(ctx context.Context) ([]models.AuthSession, error)
	RevokeSession(ctx context.Context, id int64) error
	Guard(ctx context.Context, err error) error
	Close(ctx context.Context) error
}

type authService struct {
	client   client.Client
	tokens   tokenstore.Store
	sess     *session.Session
	resolver *RoleResolver
	log      logging.Logger
	now      func() time.Time
}

// NewAuthService constructs an AuthService over the API client, the token
// store and the session it drives.
func NewAuthService(c client.Client, tokens tokenstore.Store, sess *session.Session, log logging.Logger) AuthService {
	return &authService{
		client:   c,
		tokens:   tokens,
		sess:     sess,
		resolver: NewRoleResolver(c),
		log:      log,
		now:      time.Now,
	}
}

// dropLocal clears the store and flips the session. The flag is flipped even
// when clearing fails.
func (a *authService) dropLocal(ctx context.Context) error {
	err := a.tokens.Clear(ctx)
	a.sess.ClearScratch()
	a.sess.MarkUnauthenticated()
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func (a *authService) Verify(ctx context.Context) (session.State, error) {
	cred, err := a.tokens.Get(ctx)
	if err != nil {
		a.log.Warn(ctx, "stored credential unreadable", "error", err)
		return session.StateUnauthenticated, errors.Join(fmt.Errorf("verify: %w", err), a.dropLocal(ctx))
	}
	if cred == nil {
		a.sess.MarkUnauthenticated()
		return session.StateUnauthenticated, nil
	}
	if cred.ExpiredAt(a.now()) {
		a.log.Info(ctx, "stored credential expired")
		return session.StateUnauthenticated, a.dropLocal(ctx)
	}

	profile, dash, err := a.resolver.Resolve(ctx, *cred)
	if err != nil {
		a.log.Info(ctx, "stored credential rejected", "error", err)
		return session.StateUnauthenticated, a.dropLocal(ctx)
	}

	a.sess.MarkAuthenticated()
	a.sess.Resolve(profile, models.ParseRole(profile.Role), dash)
	a.log.Info(ctx, "session verified", "username", profile.Username, "context", dash.String())
	return session.StateAuthenticated, nil
}

// Login wipes password before returning. Failures to obtain a token are
// *LoginError. If the role probe fails with an auth failure the session is
// expired; any other probe failure leaves the session authenticated in the
// neutral context and returns ErrRoleUnresolved.
func (a *authService) Login(ctx context.Context, username string, password []byte) (models.Profile, models.DashboardContext, error) {
	defer common.WipeByteArray(password)

	cred, err := a.client.ObtainToken(ctx, []byte(username), password)
	if err != nil {
		a.log.Info(ctx, "login failed", "username", username, "error", err)
		return models.Profile{}, models.ContextNeutral, newLoginError(err)
	}
	if err := a.tokens.Set(ctx, cred); err != nil {
		return models.Profile{}, models.ContextNeutral, fmt.Errorf("login: %w", err)
	}
	a.sess.MarkAuthenticated()

	profile, dash, err := a.resolver.Resolve(ctx, cred)
	if err != nil {
		if client.IsAuth(err) {
			return models.Profile{}, models.ContextNeutral, errors.Join(fmt.Errorf("%w: %w", ErrSessionExpired, err), a.dropLocal(ctx))
		}
		a.log.Warn(ctx, "role resolution failed", "username", username, "error", err)
		return models.Profile{}, models.ContextNeutral, fmt.Errorf("%w: %w", ErrRoleUnresolved, err)
	}

	a.sess.Resolve(profile, models.ParseRole(profile.Role), dash)
	a.log.Info(ctx, "logged in", "username", profile.Username, "context", dash.String())
	return profile, dash, nil
}

func (a *authService) Logout(ctx context.Context) error {
	cred, err := a.tokens.Get(ctx)
	if err != nil {
		a.log.Warn(ctx, "stored credential unreadable", "error", err)
	}
	if cred != nil {
		if err := a.client.Logout(ctx, *cred); err != nil {
			a.log.Warn(ctx, "remote logout failed", "error", err)
		}
	}
	if err := a.dropLocal(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.log.Info(ctx, "logged out")
	return nil
}

func (a *authService) Expire(ctx context.Context) error {
	a.log.Info(ctx, "session expired")
	if err := a.dropLocal(ctx); err != nil {
		return fmt.Errorf("expire: %w", err)
	}
	return nil
}

// Guard passes err through unless it is an auth failure, in which case the
// session is expired and ErrSessionExpired is returned.
func (a *authService) Guard(ctx context.Context, err error) error {
	if err == nil || !client.IsAuth(err) {
		return err
	}
	return errors.Join(fmt.Errorf("%w: %w", ErrSessionExpired, err), a.Expire(ctx))
}

func (a *authService) credential(ctx context.Context) (models.Credential, error) {
	if !a.sess.Authenticated() {
		return models.Credential{}, ErrNotAuthenticated
	}
	cred, err := a.tokens.Get(ctx)
	if err != nil {
		return models.Credential{}, err
	}
	if cred == nil {
		return models.Credential{}, ErrNotAuthenticated
	}
	return *cred, nil
}

// ResolveRole fetches the dashboard summary with the stored credential and records
// the role. An auth failure expires the session; other failures return
// ErrRoleUnresolved and leave the session as it was.
func (a *authService) ResolveRole(ctx context.Context) (models.Profile, models.DashboardContext, error) {
	cred, err := a.credential(ctx)
	if err != nil {
		return models.Profile{}, models.ContextNeutral, err
	}
	profile, dash, err := a.resolver.Resolve(ctx, cred)
	if err != nil {
		if client.IsAuth(err) {
			return models.Profile{}, models.ContextNeutral, a.Guard(ctx, err)
		}
		a.log.Warn(ctx, "role resolution failed", "error", err)
		return models.Profile{}, models.ContextNeutral, fmt.Errorf("%w: %w", ErrRoleUnresolved, err)
	}
	a.sess.Resolve(profile, models.ParseRole(profile.Role), dash)
	a.log.Info(ctx, "role resolved", "username", profile.Username, "context", dash.String())
	return profile, dash, nil
}

// Refresh rotates the stored pair. Only an auth failure expires the session;
// a network or server failure keeps the current pair.
func (a *authService) Refresh(ctx context.Context) error {
	cred, err := a.credential(ctx)
	if err != nil {
		return err
	}
	next, err := a.client.RefreshToken(ctx, cred)
	if err != nil {
		return a.Guard(ctx, err)
	}
	if err := a.tokens.Set(ctx, next); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	a.log.Debug(ctx, "credential refreshed")
	return nil
}

func (a *authService) Sessions(ctx context.Context) ([]models.AuthSession, error) {
	cred, err := a.credential(ctx)
	if err != nil {
		return nil, err
	}
	list, err := a.client.Sessions(ctx, cred)
	if err != nil {
		return nil, a.Guard(ctx, err)
	}
	return list, nil
}

func (a *authService) RevokeSession(ctx context.Context, id int64) error {
	cred, err := a.credential(ctx)
	if err != nil {
		return err
	}
	return a.Guard(ctx, a.client.RevokeSession(ctx, cred, id))
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
