package testutil

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhle/trakker/internal/api"
	"github.com/nhle/trakker/internal/credential"
	"github.com/nhle/trakker/internal/fakeapi"
	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/session"
)

// TestOTP is the login code issued by fake APIs built here.
const TestOTP = "424242"

// FakeAPI is a running fake REST API with a client pointed at it.
type FakeAPI struct {
	Server   *fakeapi.Server
	HTTP     *httptest.Server
	Client   *api.Client
	Sessions *session.Store
}

// NewFakeAPI starts an in-memory API and an anonymous client for it. The
// server and client are shut down when the test ends.
func NewFakeAPI(t *testing.T, opts ...fakeapi.Option) *FakeAPI {
	t.Helper()

	opts = append([]fakeapi.Option{fakeapi.WithOTP(TestOTP)}, opts...)
	srv := fakeapi.New(opts...)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	sessions := session.NewStore(credential.Memory())
	client := api.NewClient(api.Config{BaseURL: hs.URL + "/api", Timeout: 5 * time.Second}, sessions,
		api.WithHTTPClient(hs.Client()))
	t.Cleanup(client.Close)

	return &FakeAPI{Server: srv, HTTP: hs, Client: client, Sessions: sessions}
}

// NewSignedInFakeAPI is NewFakeAPI with a session for email already saved.
func NewSignedInFakeAPI(t *testing.T, email string, opts ...fakeapi.Option) *FakeAPI {
	t.Helper()

	f := NewFakeAPI(t, opts...)
	pair, err := f.Server.Login(email)
	require.NoError(t, err)
	require.NoError(t, f.Sessions.Save(model.Session{
		IsAuthenticated: true,
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
	}))
	return f
}
