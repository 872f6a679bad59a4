// Package pagestate keeps the live view model of a page between the requests
// of one browser. Mounting a page replaces the previous instance, so state
// is lost on navigation or reload just like component state in a browser.
package pagestate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// ErrNotFound means the instance was replaced, expired or never existed.
var ErrNotFound = errors.New("page instance not found")

type entry[T any] struct {
	mu       sync.Mutex
	id       string
	page     T
	lastUsed time.Time
}

// Registry holds at most one instance of a page type per client.
type Registry[T any] struct {
	name  string
	ttl   time.Duration
	now   func() time.Time
	mu    sync.Mutex
	pages map[string]*entry[T]
}

// NewRegistry returns a registry whose idle instances expire after ttl.
func NewRegistry[T any](name string, ttl time.Duration) *Registry[T] {
	return &Registry[T]{
		name:  name,
		ttl:   ttl,
		now:   time.Now,
		pages: make(map[string]*entry[T]),
	}
}

// Mount stores page as the current instance for clientID and returns its id.
// fn runs under the instance lock before the instance becomes reachable, so
// initial loading cannot race with actions.
func (r *Registry[T]) Mount(clientID string, page T, fn func(T) error) (string, error) {
	e := &entry[T]{id: ulid.Make().String(), page: page, lastUsed: r.now()}
	e.mu.Lock()
	defer e.mu.Unlock()

	r.mu.Lock()
	r.pages[clientID] = e
	r.mu.Unlock()

	if fn != nil {
		if err := fn(page); err != nil {
			return e.id, err
		}
	}
	return e.id, nil
}

// Do runs fn on the instance id of clientID while holding its lock.
func (r *Registry[T]) Do(clientID, id string, fn func(T) error) error {
	r.mu.Lock()
	e, ok := r.pages[clientID]
	r.mu.Unlock()
	if !ok || e.id != id {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = r.now()
	return fn(e.page)
}

// Drop forgets the instance of clientID, if any.
func (r *Registry[T]) Drop(clientID string) {
	r.mu.Lock()
	delete(r.pages, clientID)
	r.mu.Unlock()
}

// Len returns the number of live instances.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Sweep removes instances idle for longer than the ttl.
func (r *Registry[T]) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for clientID, e := range r.pages {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastUsed.Before(cutoff) {
			delete(r.pages, clientID)
			removed++
		}
		e.mu.Unlock()
	}
	if removed > 0 {
		logrus.WithFields(logrus.Fields{"page": r.name, "removed": removed}).Debug("Expired page instances")
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (r *Registry[T]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
