package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/domain"
	"github.com/aussiebroadwan/signet/internal/auth/service"
	"github.com/aussiebroadwan/signet/internal/auth/store"
	"github.com/aussiebroadwan/signet/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/signet/pkg/cryptox"
	"github.com/aussiebroadwan/signet/pkg/jwtx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testSecret = []byte("service-test-secret-0123456789ab")

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Now().UTC().Truncate(time.Second)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memUsers is an in-memory store.Users keyed by username.
type memUsers struct {
	mu     sync.Mutex
	byName map[string]domain.User
	err    error // returned by every call when set
}

func newMemUsers() *memUsers {
	return &memUsers{byName: make(map[string]domain.User)}
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.User{}, m.err
	}
	for _, u := range m.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (m *memUsers) GetUserByUsername(_ context.Context, username string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.User{}, m.err
	}
	u, ok := m.byName[username]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) CreateUser(_ context.Context, u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.byName[u.Username]; ok {
		return store.ErrAlreadyExists
	}
	m.byName[u.Username] = u
	return nil
}

func (m *memUsers) Delete(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byName, username)
}

func (m *memUsers) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byName)
}

var errBackendDown = errors.New("backend down")

// brokenKV fails every call.
type brokenKV struct{}

func (brokenKV) Set(context.Context, string, string, time.Duration) error { return errBackendDown }
func (brokenKV) Get(context.Context, string) (string, error)              { return "", errBackendDown }
func (brokenKV) Delete(context.Context, string) error                     { return errBackendDown }

type fixture struct {
	clock      *clock
	users      *memUsers
	kv         *memory.KV
	tokens     *service.TokenService
	challenges *service.ChallengeService
	auth       *service.AuthService
}

type fixtureOption func(*service.AuthServiceOptions)

func withConsumeOnVerify() fixtureOption {
	return func(o *service.AuthServiceOptions) { o.ConsumeOTPOnVerify = true }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	c := newClock()
	users := newMemUsers()
	kv := memory.NewKV().WithClock(c.Now)

	hasher, err := cryptox.NewPasswordHasher(cryptox.PasswordHasherOptions{BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	signer, err := jwtx.NewHMACSigner(jwtx.AlgorithmHS256, testSecret)
	require.NoError(t, err)
	tokens := service.NewTokenService(signer, jwtx.DefaultSessionTTL).WithClock(c.Now)

	challenges, err := service.NewChallengeService(kv, service.ChallengeOptions{})
	require.NoError(t, err)

	o := service.AuthServiceOptions{
		Users:      users,
		Hasher:     hasher,
		Tokens:     tokens,
		Challenges: challenges,
	}
	for _, opt := range opts {
		opt(&o)
	}

	auth, err := service.NewAuthService(o)
	require.NoError(t, err)

	return &fixture{
		clock:      c,
		users:      users,
		kv:         kv,
		tokens:     tokens,
		challenges: challenges,
		auth:       auth,
	}
}
