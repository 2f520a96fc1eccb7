package session

import (
	"context"
	"sync/atomic"
)

// Bootstrapper resolves a freshly constructed Machine out of the loading
// state exactly once per load. Re-entry while a run is in flight, or after
// the machine has already settled, is a no-op, so component remounts cannot
// double-bootstrap.
type Bootstrapper struct {
	machine   *Machine
	creds     *CredentialStore
	authority Authority
	logger    Logger
	running   atomic.Bool
}

// BootstrapperOption customizes Bootstrapper construction.
type BootstrapperOption func(*Bootstrapper)

// WithBootstrapLogger overrides the logger.
func WithBootstrapLogger(logger Logger) BootstrapperOption {
	return func(b *Bootstrapper) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBootstrapper wires the machine, the credential store, and the authority.
func NewBootstrapper(machine *Machine, creds *CredentialStore, authority Authority, opts ...BootstrapperOption) *Bootstrapper {
	b := &Bootstrapper{
		machine:   machine,
		creds:     creds,
		authority: authority,
		logger:    defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	return b
}

// Run restores the persisted credential, asks the authority for the current
// identity, and settles the machine:
//
//   - no stored credential: unauthenticated
//   - authority confirms: authenticated with the returned identity
//   - authority rejects and the token decodes as two-factor pending: the
//     credential is kept and the machine waits for the second factor
//   - authority rejects otherwise: logout, the credential is erased
//   - transient failure: the credential is retained and an error is
//     returned so the host can retry; the machine stays loading
//
// Run never dispatches after ctx is canceled: an identity check abandoned
// mid-flight must not apply a stale transition.
func (b *Bootstrapper) Run(ctx context.Context) error {
	if b.machine.Status() != StatusLoading {
		return nil
	}

	if !b.running.CompareAndSwap(false, true) {
		return nil
	}
	defer b.running.Store(false)

	token, err := b.creds.Restore()
	if err != nil {
		if IsNoCredential(err) {
			b.machine.SetStatus(StatusUnauthenticated)
			return nil
		}
		b.logger.Error("bootstrap could not read stored credential: %v", err)
		return err
	}

	identity, err := b.authority.CurrentIdentity(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		return b.machine.Login(token, identity)
	}

	if IsUnauthorized(err) {
		return b.resolveRejected(token)
	}

	// network or server fault: a transient outage must not log the user
	// out, so the credential stays and the caller decides when to retry
	b.logger.Warn("bootstrap identity check failed, keeping credential: %v", err)
	return err
}

// resolveRejected disambiguates an authority rejection: a token issued mid
// two-factor handshake is kept so the user can still complete the second
// factor, anything else is fully invalid.
func (b *Bootstrapper) resolveRejected(token string) error {
	claims, err := InspectToken(token)
	if err != nil {
		b.logger.Debug("stored credential is not decodable, logging out: %v", err)
		return b.machine.Logout()
	}

	if claims.TwoFactorPending() {
		return b.machine.SetPartialLogin(token)
	}

	return b.machine.Logout()
}
