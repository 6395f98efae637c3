package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/trakker/internal/api"
	"github.com/nhle/trakker/internal/cache"
	"github.com/nhle/trakker/internal/credential"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/session"
)

type fakeAPI struct {
	startCalls  int
	verifyCalls int
	startErr    error
	verifyErr   error
}

func (f *fakeAPI) StartLogin(context.Context, string) error {
	f.startCalls++
	return f.startErr
}

func (f *fakeAPI) VerifyLogin(context.Context, string, string) (*model.TokenPair, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return &model.TokenPair{AccessToken: "access-1", RefreshToken: "refresh-1"}, nil
}

type fakeCacheStore struct{ cleared int }

func (f *fakeCacheStore) ClearCache(context.Context) error {
	f.cleared++
	return nil
}

func newStore(t *testing.T, a *fakeAPI) (*Store, *session.Store, *cache.Cache, *fakeCacheStore) {
	t.Helper()
	sessions := session.NewStore(credential.Memory())
	c := cache.New()
	persisted := &fakeCacheStore{}
	return NewStore(a, sessions, c, WithCacheStore(persisted)), sessions, c, persisted
}

func TestStartLogin_MalformedEmailSkipsNetwork(t *testing.T) {
	a := &fakeAPI{}
	s, _, _, _ := newStore(t, a)

	for _, email := range []string{"", "not-an-email", "ada@", "@example.com"} {
		assert.False(t, s.StartLogin(context.Background(), email), email)
	}
	assert.Zero(t, a.startCalls)
	assert.NotEmpty(t, s.Error())
	assert.Equal(t, Anonymous, s.State())
}

func TestStartLogin_Success(t *testing.T) {
	a := &fakeAPI{}
	s, _, _, _ := newStore(t, a)

	require.True(t, s.StartLogin(context.Background(), "ada@example.com"))
	assert.Equal(t, OTPRequested, s.State())
	assert.Equal(t, "ada@example.com", s.Email())
	assert.Empty(t, s.Error())
	assert.False(t, s.IsLoading())

	// Resending from the code step stays there.
	require.True(t, s.StartLogin(context.Background(), "ada@example.com"))
	assert.Equal(t, OTPRequested, s.State())
	assert.Equal(t, 2, a.startCalls)

	s.CancelLogin()
	assert.Equal(t, Anonymous, s.State())
}

func TestStartLogin_ServerErrorRetained(t *testing.T) {
	a := &fakeAPI{startErr: &api.APIError{Status: 429, Message: "Too many attempts"}}
	s, _, _, _ := newStore(t, a)

	assert.False(t, s.StartLogin(context.Background(), "ada@example.com"))
	assert.Equal(t, "Too many attempts", s.Error())
	assert.Equal(t, Anonymous, s.State())

	s.ClearError()
	assert.Empty(t, s.Error())
}

func TestStartLogin_TransportError(t *testing.T) {
	a := &fakeAPI{startErr: errors.New("dial tcp: connection refused")}
	s, _, _, _ := newStore(t, a)

	assert.False(t, s.StartLogin(context.Background(), "ada@example.com"))
	assert.Contains(t, s.Error(), "Failed to send code")
}

func TestVerifyLogin_PersistsOnlySessionFields(t *testing.T) {
	a := &fakeAPI{}
	s, sessions, _, _ := newStore(t, a)

	require.True(t, s.StartLogin(context.Background(), "ada@example.com"))
	require.True(t, s.VerifyLogin(context.Background(), "ada@example.com", "123456"))
	assert.Equal(t, Authenticated, s.State())
	assert.True(t, s.IsAuthenticated())

	sess, err := sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, model.Session{IsAuthenticated: true, AccessToken: "access-1", RefreshToken: "refresh-1"}, sess)

	// A fresh store over the same keyring starts signed in.
	again := NewStore(a, sessions, cache.New())
	assert.Equal(t, Authenticated, again.State())
	assert.False(t, again.IsLoading())
	assert.Empty(t, again.Error())
}

func TestVerifyLogin_Failure(t *testing.T) {
	a := &fakeAPI{verifyErr: &api.APIError{Status: 401, Message: "Invalid code"}}
	s, sessions, _, _ := newStore(t, a)

	assert.False(t, s.VerifyLogin(context.Background(), "ada@example.com", "000000"))
	assert.Equal(t, "Invalid code", s.Error())
	assert.False(t, s.IsAuthenticated())

	sess, err := sessions.Load()
	require.NoError(t, err)
	assert.False(t, sess.IsAuthenticated)

	assert.False(t, s.VerifyLogin(context.Background(), "ada@example.com", ""))
	assert.Equal(t, 1, a.verifyCalls, "empty code fails locally")
}

func TestLogout_ClearsCacheAndSession(t *testing.T) {
	a := &fakeAPI{}
	s, sessions, c, persisted := newStore(t, a)
	require.True(t, s.VerifyLogin(context.Background(), "ada@example.com", "123456"))

	c.Set(cache.BoardLists, []model.Board{{ID: "b1"}})
	c.Set(cache.BoardDetail("b1"), model.FullBoard{})
	c.Set(cache.ColumnList("b1"), []model.Column{})
	c.Set(cache.CardDetail("k1"), model.Card{})
	c.Set(cache.UserMe, model.User{ID: "u1"})

	require.NoError(t, s.Logout(context.Background()))

	assert.Empty(t, c.Keys(nil))
	assert.Equal(t, Anonymous, s.State())
	assert.Equal(t, 1, persisted.cleared)

	sess, err := sessions.Load()
	require.NoError(t, err)
	assert.Equal(t, model.Session{}, sess)
}

func TestForceLogout(t *testing.T) {
	a := &fakeAPI{}
	s, _, c, persisted := newStore(t, a)
	require.True(t, s.VerifyLogin(context.Background(), "ada@example.com", "123456"))
	c.Set(cache.UserMe, model.User{ID: "u1"})

	s.ForceLogout()

	assert.Equal(t, Anonymous, s.State())
	assert.Empty(t, c.Keys(nil))
	assert.Equal(t, 1, persisted.cleared)
	assert.Contains(t, s.Error(), "expired")
}
