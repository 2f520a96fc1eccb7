package session

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// Manager is the explicitly owned session object a host application wires
// its UI to. It bundles the machine, the credential store, the bootstrapper,
// and the guard behind the three inbound triggers the surrounding UI needs:
// login with an externally delivered token, logout, and identity refresh.
type Manager struct {
	cfg       Config
	machine   *Machine
	creds     *CredentialStore
	authority Authority
	boot      *Bootstrapper
	guard     *Guard
	nav       Navigator
	logger    Logger
}

// Option customizes Manager construction.
type Option func(*Manager)

// WithLogger sets the logger shared by every component the manager builds.
func WithLogger(logger Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithAuthority overrides the authority client, e.g. with a test double.
func WithAuthority(authority Authority) Option {
	return func(m *Manager) {
		if authority != nil {
			m.authority = authority
		}
	}
}

// New builds a fully wired session manager. store is the durable client
// storage for the credential and the pending redirect (NewKeyringStore for
// real deployments, NewMemoryStore in tests); nav is the host's location.
func New(cfg Config, store Store, nav Navigator, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, errors.New("store is required", errors.CategoryBadInput)
	}
	if nav == nil {
		return nil, errors.New("navigator is required", errors.CategoryBadInput)
	}

	cfg = cfg.withDefaults()

	m := &Manager{
		cfg:    cfg,
		nav:    nav,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	if m.authority == nil {
		if cfg.BaseURL == "" {
			return nil, errors.New("base URL is required", errors.CategoryBadInput)
		}
		m.authority = NewClient(cfg.BaseURL, WithClientLogger(m.logger))
	}

	var mirrors []HeaderMirror
	if mirror, ok := m.authority.(HeaderMirror); ok {
		mirrors = append(mirrors, mirror)
	}

	m.creds = NewCredentialStore(store, mirrors,
		WithCredentialKey(cfg.CredentialKey),
		WithCredentialLogger(m.logger),
	)
	m.machine = NewMachine(m.creds, WithMachineLogger(m.logger))
	m.boot = NewBootstrapper(m.machine, m.creds, m.authority, WithBootstrapLogger(m.logger))
	m.guard = NewGuard(m.machine, nav, store, cfg, WithGuardLogger(m.logger))
	m.guard.Attach()

	return m, nil
}

// Machine exposes the underlying state store for read-only consumers that
// subscribe to transitions.
func (m *Manager) Machine() *Machine {
	return m.machine
}

// Guard exposes the navigation guard so the host can call Evaluate on path
// changes.
func (m *Manager) Guard() *Guard {
	return m.guard
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() State {
	return m.machine.Snapshot()
}

// Bootstrap resolves the session out of the loading state. It is safe to
// call from every mount; only the first call does work. A returned transient
// error means the credential was kept and Bootstrap may be called again.
func (m *Manager) Bootstrap(ctx context.Context) error {
	return m.boot.Run(ctx)
}

// Login installs an externally delivered token (e.g. from an identity
// provider callback), fetches the identity it grants, and settles the
// machine. A token the authority rejects as two-factor pending leaves the
// session waiting on the second factor.
func (m *Manager) Login(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token is required", errors.CategoryBadInput)
	}

	if err := m.creds.Set(token); err != nil {
		return err
	}

	identity, err := m.authority.CurrentIdentity(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		return m.machine.Login(token, identity)
	}

	if IsUnauthorized(err) {
		if claims, derr := InspectToken(token); derr == nil && claims.TwoFactorPending() {
			if serr := m.machine.SetPartialLogin(token); serr != nil {
				return serr
			}
			return err
		}
		if lerr := m.machine.Logout(); lerr != nil {
			m.logger.Warn("login cleanup failed: %v", lerr)
		}
	}

	return err
}

// Logout resets the session unconditionally and navigates to sign-in. It is
// idempotent.
func (m *Manager) Logout() error {
	if err := m.machine.Logout(); err != nil {
		return err
	}
	m.nav.Navigate(m.cfg.SignInPath)
	return nil
}

// RefreshUser re-fetches the identity and replaces the cached copy. It only
// applies while authenticated and never surfaces transient failures as a
// state change: an outage keeps the last known identity. A rejection,
// however, is an authority verdict and erases the credential immediately.
func (m *Manager) RefreshUser(ctx context.Context) error {
	if m.machine.Status() != StatusAuthenticated {
		return nil
	}

	identity, err := m.authority.CurrentIdentity(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		m.machine.UpdateUser(identity)
		return nil
	}

	if IsUnauthorized(err) {
		return m.machine.Logout()
	}

	m.logger.Warn("identity refresh failed, keeping last known identity: %v", err)
	return err
}

// VerifyTwoFactor completes the second factor. On success the partial
// credential is replaced by the full one in a single persist, so exactly one
// credential survives the round trip.
func (m *Manager) VerifyTwoFactor(ctx context.Context, code string) error {
	result, err := m.authority.VerifyTwoFactorCode(ctx, code)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return err
	}

	return m.machine.Login(result.AccessToken, result.User)
}

// StartRefresh re-polls the identity on the given interval until ctx is
// canceled. Failures are already absorbed by RefreshUser, so the loop only
// stops on teardown.
func (m *Manager) StartRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.RefreshUser(ctx); err != nil && ctx.Err() == nil {
					m.logger.Debug("periodic refresh: %v", err)
				}
			}
		}
	}()
}
