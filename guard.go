package session

// RedirectMemory is the one-shot record of where a visitor was headed before
// being diverted to sign-in. It is written once, read once, and deleted on
// read, so a second reload after authenticating lands on the default path.
type RedirectMemory struct {
	store  Store
	key    string
	logger Logger
}

// NewRedirectMemory stores the pending redirect under key in the given store.
func NewRedirectMemory(store Store, key string, logger Logger) *RedirectMemory {
	if key == "" {
		key = defaultPendingRedirectKey
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &RedirectMemory{store: store, key: key, logger: logger}
}

// Set remembers the rejected destination.
func (r *RedirectMemory) Set(path string) {
	if path == "" {
		return
	}
	if err := r.store.Set(r.key, path); err != nil {
		r.logger.Warn("could not remember redirect %q: %v", path, err)
	}
}

// Consume returns the remembered destination and deletes it.
func (r *RedirectMemory) Consume() (string, bool) {
	path, err := r.store.Get(r.key)
	if err != nil || path == "" {
		return "", false
	}
	if err := r.store.Delete(r.key); err != nil {
		r.logger.Warn("could not delete consumed redirect: %v", err)
	}
	return path, true
}

// Guard enforces the navigation policy over {status, route class}. It
// observes the machine and re-evaluates on every settled transition; the
// host additionally calls Evaluate on every path change.
type Guard struct {
	machine   *Machine
	routes    *RouteTable
	nav       Navigator
	redirects *RedirectMemory
	logger    Logger

	signInPath     string
	twoFactorPath  string
	suspendedPath  string
	defaultLanding string
}

// GuardOption customizes Guard construction.
type GuardOption func(*Guard)

// WithGuardLogger overrides the logger.
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGuard builds a guard for the given machine and navigator. cfg supplies
// the route table, the well-known paths, and the redirect storage key.
func NewGuard(machine *Machine, nav Navigator, store Store, cfg Config, opts ...GuardOption) *Guard {
	cfg = cfg.withDefaults()

	g := &Guard{
		machine:        machine,
		routes:         cfg.Routes,
		nav:            nav,
		logger:         defLogger{},
		signInPath:     cfg.SignInPath,
		twoFactorPath:  cfg.TwoFactorPath,
		suspendedPath:  cfg.SuspendedPath,
		defaultLanding: cfg.DefaultLanding,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	g.redirects = NewRedirectMemory(store, cfg.PendingRedirectKey, g.logger)

	return g
}

// Attach subscribes the guard to the machine so every settled transition is
// re-evaluated. Returns the unsubscribe function.
func (g *Guard) Attach() func() {
	return g.machine.Subscribe(func(state State) {
		g.evaluate(state)
	})
}

// Evaluate applies the policy to the current {status, path} pair and drives
// the navigator when a redirect is due. The host calls this on every path
// change; the guard calls it itself on every machine transition.
func (g *Guard) Evaluate() {
	g.evaluate(g.machine.Snapshot())
}

// evaluate makes no decision while the session is loading: the guard
// re-evaluates fully once bootstrap settles, so a stale decision can never
// be enqueued.
func (g *Guard) evaluate(state State) {
	if state.Status == StatusLoading {
		return
	}

	path := g.nav.CurrentPath()
	class := g.routes.Classify(path)

	switch state.Status {
	case StatusAuthenticated:
		g.evaluateAuthenticated(state, path, class)
	case StatusTwoFactorRequired:
		if class != RouteTwoFactor {
			g.redirect(path, g.twoFactorPath, "second factor pending")
		}
	case StatusUnauthenticated:
		if class == RouteProtected {
			g.redirects.Set(path)
			g.redirect(path, g.signInPath, "sign-in required")
		}
	}
}

func (g *Guard) evaluateAuthenticated(state State, path string, class RouteClass) {
	// a banned account is pinned to the suspended page regardless of
	// destination
	if state.User.IsBanned() {
		if class != RouteSuspended {
			g.redirect(path, g.suspendedPath, "account suspended")
		}
		return
	}

	switch class {
	case RouteAuth, RouteTwoFactor, RouteSuspended:
		target, ok := g.redirects.Consume()
		if !ok {
			target = g.defaultLanding
		}
		g.redirect(path, target, "already authenticated")
	}
}

func (g *Guard) redirect(from, to, reason string) {
	if from == to {
		return
	}
	g.logger.Debug("redirecting %s -> %s (%s)", from, to, reason)
	g.nav.Navigate(to)
}
