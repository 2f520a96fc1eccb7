package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-session"
)

// fakeNavigator records every redirect the guard issues.
type fakeNavigator struct {
	mu   sync.Mutex
	path string
	log  []string
}

func newFakeNavigator(path string) *fakeNavigator {
	return &fakeNavigator{path: path}
}

func (n *fakeNavigator) CurrentPath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.path
}

func (n *fakeNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = path
	n.log = append(n.log, path)
}

func (n *fakeNavigator) visits() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.log))
	copy(out, n.log)
	return out
}

// fakeMirror observes header updates from the credential store.
type fakeMirror struct {
	mu      sync.Mutex
	current string
	history []string
}

func (f *fakeMirror) SetAuthorization(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = token
	f.history = append(f.history, token)
}

func (f *fakeMirror) authorization() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// fakeAuthority scripts authority responses for facade tests. onIdentity,
// when set, runs inside CurrentIdentity before the scripted response, so a
// test can cancel the caller's context mid-flight.
type fakeAuthority struct {
	mu             sync.Mutex
	identity       *session.Identity
	identityErr    error
	twoFactor      *session.TwoFactorResult
	twoFactorErr   error
	onIdentity     func()
	identityCalls  int
	twoFactorCalls int
}

func (f *fakeAuthority) CurrentIdentity(ctx context.Context) (*session.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identityCalls++
	if f.onIdentity != nil {
		f.onIdentity()
	}
	if f.identityErr != nil {
		return nil, f.identityErr
	}
	return f.identity, nil
}

func (f *fakeAuthority) VerifyTwoFactorCode(ctx context.Context, code string) (*session.TwoFactorResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.twoFactorCalls++
	if f.twoFactorErr != nil {
		return nil, f.twoFactorErr
	}
	return f.twoFactor, nil
}

func (f *fakeAuthority) set(identity *session.Identity, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identity = identity
	f.identityErr = err
}

func testIdentity(id string, roles ...session.Role) *session.Identity {
	return &session.Identity{
		ID:            id,
		Email:         id + "@example.com",
		FirstName:     "Test",
		LastName:      "User",
		Roles:         roles,
		AccountStatus: session.AccountActive,
	}
}

// signToken mints a JWT for claim-inspection tests. The signing key is
// irrelevant: the client never verifies signatures.
func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	if _, ok := claims["exp"]; !ok {
		claims["exp"] = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return raw
}

func partialToken(t *testing.T, subject string) string {
	return signToken(t, jwt.MapClaims{
		"sub":                               subject,
		"isTwoFactorAuthenticationComplete": false,
	})
}

func fullToken(t *testing.T, subject string) string {
	return signToken(t, jwt.MapClaims{
		"sub":                               subject,
		"isTwoFactorAuthenticationComplete": true,
	})
}

func newCredentialStore(mirrors ...session.HeaderMirror) (*session.CredentialStore, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return session.NewCredentialStore(store, mirrors), store
}
