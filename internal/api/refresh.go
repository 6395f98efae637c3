package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nhle/trakker/internal/model"
)

// refreshState is the refresher's state. At most one refresh call is in
// flight; everyone else who hit a 401 meanwhile waits in the queue.
type refreshState int

const (
	notRefreshing refreshState = iota
	refreshing
)

func (s refreshState) String() string {
	if s == refreshing {
		return "refreshing"
	}
	return "not-refreshing"
}

// refreshTimeout bounds the refresh call itself. It does not inherit the
// initiating request's context because queued requests depend on it too.
const refreshTimeout = 30 * time.Second

type refreshResult struct {
	token string
	err   error
}

type refreshRequest struct {
	// staleToken is the access token the server rejected.
	staleToken string
	reply      chan refreshResult
}

type refreshDone struct {
	pair model.TokenPair
	err  error
}

type refreshFunc func(ctx context.Context, refreshToken string) (*model.TokenPair, error)

// refresher owns the token refresh state machine. All state lives in the
// run goroutine and changes only in response to messages.
type refresher struct {
	tokens  TokenStore
	call    refreshFunc
	log     *slog.Logger
	reqCh   chan refreshRequest
	doneCh  chan refreshDone
	stopCh  chan struct{}
	stopped chan struct{}

	mu        sync.Mutex
	onExpired func()
	stopOnce  sync.Once
}

func newRefresher(tokens TokenStore, call refreshFunc, log *slog.Logger) *refresher {
	return &refresher{
		tokens:  tokens,
		call:    call,
		log:     log,
		reqCh:   make(chan refreshRequest),
		doneCh:  make(chan refreshDone, 1),
		stopCh:  make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (r *refresher) setOnExpired(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onExpired = fn
}

func (r *refresher) stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		<-r.stopped
	})
}

// refresh asks for a fresh access token after staleToken was rejected.
// It blocks until the in-flight refresh (started by this caller or an
// earlier one) settles.
func (r *refresher) refresh(ctx context.Context, staleToken string) (string, error) {
	req := refreshRequest{staleToken: staleToken, reply: make(chan refreshResult, 1)}

	select {
	case r.reqCh <- req:
	case <-r.stopped:
		return "", ErrClientClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.token, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *refresher) run() {
	defer close(r.stopped)

	state := notRefreshing
	var pending []chan refreshResult

	settle := func(res refreshResult) {
		for _, reply := range pending {
			reply <- res
		}
		pending = nil
	}

	for {
		select {
		case req := <-r.reqCh:
			r.log.Debug("refresh requested", "state", state, "queued", len(pending))
			if state == refreshing {
				pending = append(pending, req.reply)
				continue
			}

			sess, err := r.tokens.Load()
			if err != nil {
				req.reply <- refreshResult{err: fmt.Errorf("loading session: %w", err)}
				continue
			}

			// Another refresh already replaced the rejected token.
			if sess.AccessToken != "" && sess.AccessToken != req.staleToken {
				req.reply <- refreshResult{token: sess.AccessToken}
				continue
			}

			state = refreshing
			pending = append(pending, req.reply)
			go r.exchange(sess.RefreshToken)

		case done := <-r.doneCh:
			state = notRefreshing
			if done.err != nil {
				r.expire(done.err)
				settle(refreshResult{err: fmt.Errorf("%w: %w", ErrSessionExpired, done.err)})
				continue
			}

			sess := model.Session{
				IsAuthenticated: true,
				AccessToken:     done.pair.AccessToken,
				RefreshToken:    done.pair.RefreshToken,
			}
			if err := r.tokens.Save(sess); err != nil {
				r.log.Error("saving refreshed session", "error", err)
			}
			r.log.Info("access token refreshed", "waiting", len(pending))
			settle(refreshResult{token: done.pair.AccessToken})

		case <-r.stopCh:
			settle(refreshResult{err: ErrClientClosed})
			return
		}
	}
}

// exchange calls the refresh endpoint and reports back to run.
func (r *refresher) exchange(refreshToken string) {
	if refreshToken == "" {
		r.doneCh <- refreshDone{err: errors.New("no refresh token available")}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	pair, err := r.call(ctx, refreshToken)
	if err == nil && (pair == nil || pair.AccessToken == "") {
		err = errors.New("token refresh failed")
	}
	if err != nil {
		r.doneCh <- refreshDone{err: err}
		return
	}
	r.doneCh <- refreshDone{pair: *pair}
}

// expire clears the session and notifies the UI.
func (r *refresher) expire(cause error) {
	r.log.Warn("token refresh failed, signing out", "error", cause)

	if err := r.tokens.Clear(); err != nil {
		r.log.Error("clearing session", "error", err)
	}

	r.mu.Lock()
	fn := r.onExpired
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}
