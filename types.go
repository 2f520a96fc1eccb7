package session

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Status is the session lifecycle state. It is a tagged union with exactly
// four members; the Machine never exposes any other value.
type Status string

const (
	// StatusLoading means bootstrap is in progress; no guard decision may be
	// made while the session is loading.
	StatusLoading Status = "loading"
	// StatusUnauthenticated means no valid credential exists.
	StatusUnauthenticated Status = "unauthenticated"
	// StatusTwoFactorRequired means a credential identifies a principal that
	// has not completed the second factor.
	StatusTwoFactorRequired Status = "2fa_required"
	// StatusAuthenticated means a credential and a verified identity both exist.
	StatusAuthenticated Status = "authenticated"
)

// Authority is the backend service that verifies credentials and owns
// identity data. The client never verifies tokens itself.
type Authority interface {
	// CurrentIdentity asks the authority who the presented credential
	// identifies. Returns ErrCredentialRejected when the authority denies
	// the credential and ErrTransientFailure for network or server faults.
	CurrentIdentity(ctx context.Context) (*Identity, error)
	// VerifyTwoFactorCode completes the second factor using the partial
	// credential currently attached to outbound requests.
	VerifyTwoFactorCode(ctx context.Context, code string) (*TwoFactorResult, error)
}

// TwoFactorResult is the authority's answer to a successful second-factor
// verification: a full credential and the verified identity.
type TwoFactorResult struct {
	AccessToken string    `json:"accessToken"`
	User        *Identity `json:"user"`
}

// HeaderMirror receives every credential change synchronously so the next
// outbound request reflects the new value. A missed mirror update produces
// silently unauthenticated requests that look like transient network errors,
// which is why only CredentialStore may drive it.
type HeaderMirror interface {
	SetAuthorization(token string)
}

// Navigator abstracts the host application's location. The Guard reads the
// current path from it and drives redirects through it.
type Navigator interface {
	CurrentPath() string
	Navigate(path string)
}

// Store is durable client-side key/value storage for the credential and the
// pending redirect. Implementations must return ErrKeyNotFound for missing
// keys so callers can tell absence from failure.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Config holds the paths and storage keys the session components share.
// Zero values fall back to the defaults below.
type Config struct {
	// ServiceName namespaces keyring entries. Defaults to "go-session".
	ServiceName string
	// BaseURL is the authority's origin, e.g. "https://api.example.com".
	BaseURL string

	SignInPath     string
	TwoFactorPath  string
	SuspendedPath  string
	DefaultLanding string

	CredentialKey      string
	PendingRedirectKey string

	Routes *RouteTable
}

const (
	defaultServiceName        = "go-session"
	defaultSignInPath         = "/sign-in"
	defaultTwoFactorPath      = "/2fa"
	defaultSuspendedPath      = "/suspended"
	defaultLandingPath        = "/home"
	defaultCredentialKey      = "access_token"
	defaultPendingRedirectKey = "pending_redirect"
)

// withDefaults fills the zero-value fields so components can rely on every
// path and key being set.
func (c Config) withDefaults() Config {
	if c.ServiceName == "" {
		c.ServiceName = defaultServiceName
	}
	if c.SignInPath == "" {
		c.SignInPath = defaultSignInPath
	}
	if c.TwoFactorPath == "" {
		c.TwoFactorPath = defaultTwoFactorPath
	}
	if c.SuspendedPath == "" {
		c.SuspendedPath = defaultSuspendedPath
	}
	if c.DefaultLanding == "" {
		c.DefaultLanding = defaultLandingPath
	}
	if c.CredentialKey == "" {
		c.CredentialKey = defaultCredentialKey
	}
	if c.PendingRedirectKey == "" {
		c.PendingRedirectKey = defaultPendingRedirectKey
	}
	if c.Routes == nil {
		c.Routes = DefaultRouteTable()
	}
	return c
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
