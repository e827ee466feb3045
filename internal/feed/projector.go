// Package feed maintains a live, newest-first projection of the post
// collection from the store's change-notification stream. Every
// notification replaces the whole in-memory sequence (full-replace, no
// incremental diffing); the projection is read-only and never
// authoritative.
package feed

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/samber/lo"
	"github.com/zhulik/pips"
	"github.com/zhulik/pips/apply"

	"socialite/internal/core"
	"socialite/internal/store"
)

type Projector struct {
	Logger *slog.Logger
	Store  core.DocumentStore

	mu        sync.RWMutex
	posts     []core.Post
	callbacks map[int]*callback
	nextID    int
}

// callback is one OnUpdate registration. Invocations hold mu, so closing
// under the same mutex blocks until any in-flight invocation finishes and
// guarantees none start afterwards.
type callback struct {
	mu     sync.Mutex
	fn     func([]core.Post)
	closed bool
}

func (c *callback) invoke(posts []core.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.fn(posts)
}

func (c *callback) close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (p *Projector) Init(_ context.Context) error {
	p.Logger = p.Logger.With("component", "feed.Projector")
	p.callbacks = map[int]*callback{}
	return nil
}

// Run subscribes to the post collection ordered by recency and republishes
// each snapshot until ctx is cancelled. The subscription is torn down
// deterministically on return.
func (p *Projector) Run(ctx context.Context) error {
	sub, err := p.Store.Subscribe(ctx, core.CollectionPosts, "createdAt", true)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	ch := make(chan pips.D[[]core.Document])
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case snapshot, ok := <-sub.C():
				if !ok {
					return
				}
				select {
				case ch <- pips.NewD(snapshot):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	err = pips.New[[]core.Document, []core.Post]().
		Then(apply.Map(decodeSnapshot)).
		Then(apply.Each(func(_ context.Context, posts []core.Post) error {
			p.publish(posts)
			return nil
		})).
		Run(ctx, ch).
		Wait(ctx)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (p *Projector) Shutdown(_ context.Context) error {
	p.mu.Lock()
	callbacks := lo.Values(p.callbacks)
	p.callbacks = map[int]*callback{}
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb.close()
	}
	return nil
}

// CurrentPosts returns the latest known snapshot, newest first. Empty
// until the first notification arrives.
func (p *Projector) CurrentPosts() []core.Post {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.posts)
}

// OnUpdate registers a callback invoked with every snapshot change and
// returns an unsubscribe func. Unsubscribing is idempotent, waits out an
// in-flight invocation of the callback, and guarantees no invocations
// after it returns.
func (p *Projector) OnUpdate(fn func([]core.Post)) func() {
	p.mu.Lock()

	id := p.nextID
	p.nextID++
	cb := &callback{fn: fn}
	p.callbacks[id] = cb
	p.mu.Unlock()

	return func() {
		cb.close()

		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.callbacks, id)
	}
}

func (p *Projector) publish(posts []core.Post) {
	p.mu.Lock()
	p.posts = posts
	callbacks := lo.Values(p.callbacks)
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb.invoke(slices.Clone(posts))
	}
}

func decodeSnapshot(_ context.Context, docs []core.Document) ([]core.Post, error) {
	posts := make([]core.Post, 0, len(docs))
	for _, doc := range docs {
		post, err := store.DecodePost(doc)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}
