package session

import "sync"

// State is the machine's snapshot: the cached identity, the effective
// credential, the lifecycle status, and the derived admin flag. IsAdmin is
// always a pure function of User.Roles; it is recomputed on every identity
// replacement and never stored independently.
type State struct {
	User    *Identity
	Token   string
	Status  Status
	IsAdmin bool
}

// Subscriber observes every settled state. Callbacks run synchronously after
// the transition commits, in subscription order, and must not dispatch back
// into the machine.
type Subscriber func(State)

// Machine is the single-writer session store. Every transition is processed
// to completion before the next is accepted, so observers can never see
// half-applied state such as a two-factor-pending status alongside an
// authenticated identity.
type Machine struct {
	// dispatchMu serializes transitions end to end, notification included,
	// so subscribers never observe a later transition before an earlier one
	// finishes. mu alone protects state access and stays safe to take from
	// inside a subscriber.
	dispatchMu sync.Mutex
	mu         sync.Mutex
	state      State
	creds      *CredentialStore
	logger     Logger

	subMu  sync.Mutex
	subs   []subscription
	nextID int
}

type subscription struct {
	id int
	fn Subscriber
}

// MachineOption customizes Machine construction.
type MachineOption func(*Machine)

// WithMachineLogger overrides the logger used for persistence failures.
func WithMachineLogger(logger Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMachine returns a machine in the loading state. The credential store is
// the machine's only side channel: Login and SetPartialLogin persist through
// it before the transition commits, Logout clears it.
func NewMachine(creds *CredentialStore, opts ...MachineOption) *Machine {
	m := &Machine{
		state:  State{Status: StatusLoading},
		creds:  creds,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Login persists the credential, replaces the cached identity, and settles
// the machine in the authenticated state. The persist happens before the
// transition so a request fired by a subscriber already carries the new
// credential.
func (m *Machine) Login(token string, user *Identity) error {
	if err := m.creds.Set(token); err != nil {
		return err
	}

	m.apply(func(s *State) {
		s.Token = token
		s.User = user.clone()
		s.Status = StatusAuthenticated
		s.IsAdmin = s.User.IsAdmin()
	})
	return nil
}

// Logout clears the credential and resets the machine to the zero-value
// unauthenticated state. It may be dispatched from any state and is
// idempotent.
func (m *Machine) Logout() error {
	if err := m.creds.Clear(); err != nil {
		// the persisted value could not be erased; still drop it from the
		// live session so no further request carries it
		m.logger.Warn("logout could not clear persisted credential: %v", err)
	}

	m.apply(func(s *State) {
		*s = State{Status: StatusUnauthenticated}
	})
	return nil
}

// SetStatus overrides the status directly. It is used only during bootstrap,
// before an identity is known, and never touches the identity or credential.
func (m *Machine) SetStatus(status Status) {
	m.apply(func(s *State) {
		s.Status = status
	})
}

// SetPartialLogin persists the partial credential and settles the machine in
// the two-factor-pending state. Any previously cached identity is dropped:
// during the two-factor window the credential exists without an identity.
func (m *Machine) SetPartialLogin(token string) error {
	if err := m.creds.Set(token); err != nil {
		return err
	}

	m.apply(func(s *State) {
		s.Token = token
		s.User = nil
		s.Status = StatusTwoFactorRequired
		s.IsAdmin = false
	})
	return nil
}

// UpdateUser replaces the cached identity without touching the credential.
// It only applies while already authenticated: a self-refresh landing after
// a logout must not resurrect the session.
func (m *Machine) UpdateUser(user *Identity) {
	m.apply(func(s *State) {
		if s.Status != StatusAuthenticated {
			return
		}
		s.User = user.clone()
		s.IsAdmin = s.User.IsAdmin()
	})
}

// Snapshot returns a copy of the current state safe for read-only consumers.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Status is a convenience accessor for the lifecycle status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status
}

// Subscribe registers an observer and returns its unsubscribe function.
func (m *Machine) Subscribe(fn Subscriber) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs = append(m.subs, subscription{id: id, fn: fn})

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, sub := range m.subs {
			if sub.id == id {
				m.subs = append(m.subs[:i], m.subs[i+1:]...)
				return
			}
		}
	}
}

// apply commits a mutation and notifies subscribers with the settled state.
func (m *Machine) apply(mutate func(*State)) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	mutate(&m.state)
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.subMu.Lock()
	subs := make([]subscription, len(m.subs))
	copy(subs, m.subs)
	m.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

func (m *Machine) snapshotLocked() State {
	snapshot := m.state
	snapshot.User = m.state.User.clone()
	return snapshot
}
