package resolution

import (
	"context"
	"sync"

	"ocm.software/open-component-model/presentation/presentation"
)

// Update delivers at most one follow-up snapshot for a single resolution request.
// The channel is buffered, so nobody has to listen; it is closed once the request is done.
type Update struct {
	ch   chan presentation.Snapshot
	done chan struct{}
	once sync.Once
}

var noUpdate = func() *Update {
	u := &Update{ch: make(chan presentation.Snapshot), done: make(chan struct{})}
	u.complete()
	return u
}()

// NoUpdate returns an Update that completes without ever emitting.
func NoUpdate() *Update {
	return noUpdate
}

func newUpdate() *Update {
	return &Update{ch: make(chan presentation.Snapshot, 1), done: make(chan struct{})}
}

// C returns the channel carrying the follow-up snapshot.
// It is closed after at most one value.
func (u *Update) C() <-chan presentation.Snapshot {
	return u.ch
}

// Done is closed once the update completed, with or without a snapshot.
func (u *Update) Done() <-chan struct{} {
	return u.done
}

// Wait blocks until the update completes or ctx ends.
// The boolean is false when no snapshot was emitted.
func (u *Update) Wait(ctx context.Context) (presentation.Snapshot, bool) {
	select {
	case s, ok := <-u.ch:
		return s, ok
	case <-ctx.Done():
		return presentation.Snapshot{}, false
	}
}

// publish emits s and completes the update. Only the first call has an effect.
func (u *Update) publish(s presentation.Snapshot) {
	u.once.Do(func() {
		u.ch <- s
		close(u.ch)
		close(u.done)
	})
}

// complete closes the update without emitting if nothing was published.
func (u *Update) complete() {
	u.once.Do(func() {
		close(u.ch)
		close(u.done)
	})
}
