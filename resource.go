package oauth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/guildview/discord-oauth/instrumentation"
)

// FetchFunc performs one authenticated call against a provider endpoint
// and decodes the payload. The two used in practice are
// discord.Provider.CurrentUser and discord.Provider.CurrentUserGuilds.
type FetchFunc[T any] func(ctx context.Context, accessToken string) (T, error)

// Resource is the generic authenticated-read primitive: a cached payload
// tied to the session's token lifecycle. It refetches when a token is
// committed, clears its cache when the token goes away, and reports any
// fetch failure back into the session, which revokes the whole session.
//
// Responses are applied last-state-wins: a fetch begun before a token
// change is discarded when it completes, so a late response can never
// resurrect data for a logged-out session.
type Resource[T any] struct {
	name    string
	session *Session
	fetch   FetchFunc[T]
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu   sync.Mutex
	gen  uint64 // bumped on every token change; stale fetches are discarded
	data *T
	err  error
}

// NewResource creates a resource bound to the session's token lifecycle.
// The name identifies the resource in logs and audit events. The resource
// subscribes to the session: a committed token triggers a background
// fetch, a cleared token empties the cache.
func NewResource[T any](session *Session, name string, fetch FetchFunc[T]) *Resource[T] {
	r := &Resource[T]{
		name:    name,
		session: session,
		fetch:   fetch,
		logger:  session.logger,
		metrics: session.metrics,
	}
	session.Subscribe(r.onTokenChange)
	return r
}

// onTokenChange reacts to the session's token transitions. Fetches run on
// their own goroutine; the profile and guild resources are independent
// and complete in no guaranteed order.
func (r *Resource[T]) onTokenChange(token string) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if token == "" {
		r.data = nil
		r.mu.Unlock()
		return
	}
	r.err = nil
	r.mu.Unlock()

	go func() {
		_ = r.run(context.Background(), token, gen)
	}()
}

// Fetch runs one fetch with the currently held token. When no token is
// held (or the held token is expired) it is a no-op, not an error: the
// guard cancels the call before any network attempt.
func (r *Resource[T]) Fetch(ctx context.Context) error {
	token, err := r.session.Token(ctx)
	if err != nil {
		return err
	}
	if token == nil {
		r.logger.Debug("Skipping fetch, no token held", "resource", r.name)
		return nil
	}

	r.mu.Lock()
	gen := r.gen
	r.mu.Unlock()
	return r.run(ctx, token.AccessToken, gen)
}

func (r *Resource[T]) run(ctx context.Context, accessToken string, gen uint64) error {
	r.metrics.FetchTotal.Add(ctx, 1)
	start := time.Now()

	data, err := r.fetch(ctx, accessToken)
	r.metrics.FetchDuration.Record(ctx, float64(time.Since(start).Milliseconds()))

	if err != nil {
		r.metrics.FetchFailures.Add(ctx, 1)
		r.mu.Lock()
		r.err = err
		r.mu.Unlock()
		// Any fetch failure revokes the session; the teardown notifies
		// every resource, which clears the cached data.
		r.session.authFailure(ctx, r.name, err)
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		// Token changed while the fetch was in flight; the reactive
		// recomputation already owns the current state.
		r.logger.Debug("Discarding stale fetch result", "resource", r.name)
		return nil
	}
	r.data = &data
	r.err = nil
	return nil
}

// Data returns the cached payload. ok is false when nothing is cached:
// before the first fetch, and after any logout or teardown.
func (r *Resource[T]) Data() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data == nil {
		var zero T
		return zero, false
	}
	return *r.data, true
}

// Err returns the most recent fetch error, if any. It is reset when a new
// token triggers a fresh fetch.
func (r *Resource[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
