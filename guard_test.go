package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-session"
)

type guardFixture struct {
	machine *session.Machine
	guard   *session.Guard
	nav     *fakeNavigator
	store   *session.MemoryStore
}

func newGuardFixture(t *testing.T, path string) *guardFixture {
	t.Helper()

	store := session.NewMemoryStore()
	creds := session.NewCredentialStore(store, nil)
	machine := session.NewMachine(creds)
	nav := newFakeNavigator(path)
	guard := session.NewGuard(machine, nav, store, session.Config{})
	guard.Attach()

	return &guardFixture{machine: machine, guard: guard, nav: nav, store: store}
}

func TestGuardMakesNoDecisionWhileLoading(t *testing.T) {
	f := newGuardFixture(t, "/settings")

	f.guard.Evaluate()

	assert.Empty(t, f.nav.visits(), "no redirect may be enqueued during loading")
}

func TestGuardUnauthenticatedOnProtectedStoresRedirect(t *testing.T) {
	f := newGuardFixture(t, "/profile/me")

	f.machine.SetStatus(session.StatusUnauthenticated)

	assert.Equal(t, "/sign-in", f.nav.CurrentPath())

	pending, err := f.store.Get("pending_redirect")
	require.NoError(t, err)
	assert.Equal(t, "/profile/me", pending)
}

func TestGuardUnauthenticatedOnPublicAndAuthStaysPut(t *testing.T) {
	for _, path := range []string{"/", "/about", "/users/42", "/sign-in", "/sign-up"} {
		f := newGuardFixture(t, path)
		f.machine.SetStatus(session.StatusUnauthenticated)
		assert.Empty(t, f.nav.visits(), "path %s", path)
	}
}

func TestGuardPendingRedirectConsumedExactlyOnce(t *testing.T) {
	f := newGuardFixture(t, "/settings")

	// diverted to sign-in, destination remembered
	f.machine.SetStatus(session.StatusUnauthenticated)
	require.Equal(t, "/sign-in", f.nav.CurrentPath())

	// authenticating on the auth page lands on the remembered destination
	require.NoError(t, f.machine.Login("t1", testIdentity("user-1")))
	assert.Equal(t, "/settings", f.nav.CurrentPath())

	// a later visit to the auth page falls back to the default landing:
	// the memory was consumed
	f.nav.Navigate("/sign-in")
	f.guard.Evaluate()
	assert.Equal(t, "/home", f.nav.CurrentPath())
}

func TestGuardTwoFactorRequiredPinsToTwoFactorPage(t *testing.T) {
	for _, path := range []string{"/home", "/sign-in", "/", "/settings"} {
		f := newGuardFixture(t, path)
		require.NoError(t, f.machine.SetPartialLogin("partial"))
		assert.Equal(t, "/2fa", f.nav.CurrentPath(), "from %s", path)
	}

	// already on the two-factor page: no redirect
	f := newGuardFixture(t, "/2fa")
	require.NoError(t, f.machine.SetPartialLogin("partial"))
	assert.Empty(t, f.nav.visits())
}

func TestGuardAuthenticatedLeavesProtectedAndPublicAlone(t *testing.T) {
	for _, path := range []string{"/home", "/chats/42", "/", "/about"} {
		f := newGuardFixture(t, path)
		require.NoError(t, f.machine.Login("t1", testIdentity("user-1")))
		assert.Empty(t, f.nav.visits(), "path %s", path)
	}
}

func TestGuardAuthenticatedBouncedOffAuthPages(t *testing.T) {
	for _, path := range []string{"/sign-in", "/2fa", "/suspended"} {
		f := newGuardFixture(t, path)
		require.NoError(t, f.machine.Login("t1", testIdentity("user-1")))
		assert.Equal(t, "/home", f.nav.CurrentPath(), "from %s", path)
	}
}

func TestGuardBannedAccountPinnedToSuspendedPage(t *testing.T) {
	banned := testIdentity("user-1", session.RoleMember)
	banned.AccountStatus = session.AccountBanned
	banned.BanReason = "tos violation"

	for _, path := range []string{"/home", "/chats/42", "/social", "/", "/sign-in"} {
		f := newGuardFixture(t, path)
		require.NoError(t, f.machine.Login("t1", banned))
		assert.Equal(t, "/suspended", f.nav.CurrentPath(), "from %s", path)
	}

	// already on the suspended page: no redirect
	f := newGuardFixture(t, "/suspended")
	require.NoError(t, f.machine.Login("t1", banned))
	assert.Empty(t, f.nav.visits())
}

func TestGuardCustomPaths(t *testing.T) {
	store := session.NewMemoryStore()
	creds := session.NewCredentialStore(store, nil)
	machine := session.NewMachine(creds)
	nav := newFakeNavigator("/app/billing")

	cfg := session.Config{
		SignInPath: "/login",
		Routes: session.NewRouteTable(
			nil,
			[]string{"/app", "/app/[section]"},
			[]string{"/login"},
			[]string{"/verify"},
			[]string{"/banned"},
		),
	}
	guard := session.NewGuard(machine, nav, store, cfg)
	guard.Attach()

	machine.SetStatus(session.StatusUnauthenticated)
	assert.Equal(t, "/login", nav.CurrentPath())
}
