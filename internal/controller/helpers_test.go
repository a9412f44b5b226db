package controller_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/taskdesk/internal/api"
	"github.com/rpggio/taskdesk/internal/apitest"
	"github.com/rpggio/taskdesk/internal/domain/user"
	"github.com/rpggio/taskdesk/internal/session"
	"github.com/stretchr/testify/require"
)

type env struct {
	srv     *apitest.Server
	store   *session.MemoryStore
	client  *api.Client
	adminID string
	userID  string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	srv := apitest.New(t)
	store := session.NewMemoryStore()
	return &env{
		srv:     srv,
		store:   store,
		client:  api.New(api.Options{BaseURL: srv.BaseURL(), Timeout: 5 * time.Second, Sessions: store}),
		adminID: srv.AddUser("Ada", "ada@example.com", "secret", "admin"),
		userID:  srv.AddUser("Uma", "uma@example.com", "secret", "user"),
	}
}

func (e *env) loginAs(t *testing.T, id string, role user.Role) {
	t.Helper()
	require.NoError(t, e.store.Establish(context.Background(), session.Session{
		Token:   e.srv.IssueToken(id),
		Role:    role,
		Profile: user.Summary{ID: id, Role: role},
	}))
}

// authLost records calls to an AuthLostFunc.
type authLost struct {
	mu   sync.Mutex
	errs []error
}

func (a *authLost) record(_ context.Context, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs = append(a.errs, err)
}

func (a *authLost) calls() []error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]error(nil), a.errs...)
}

// parkFirst holds the first request whose path ends with suffix until
// release is called. Later matching requests pass straight through.
func parkFirst(t *testing.T, srv *apitest.Server, method, suffix string) (entered <-chan struct{}, release func()) {
	t.Helper()
	in := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	srv.Intercept(func(w http.ResponseWriter, r *http.Request) bool {
		if r.Method != method || !strings.HasSuffix(r.URL.Path, suffix) {
			return false
		}
		first := false
		once.Do(func() { first = true })
		if !first {
			return false
		}
		close(in)
		select {
		case <-gate:
		case <-r.Context().Done():
		}
		return false
	})
	var closeOnce sync.Once
	stop := func() { closeOnce.Do(func() { close(gate) }) }
	t.Cleanup(stop)
	return in, stop
}
