package pagestate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type counter struct{ n int }

func TestMountAndDo(t *testing.T) {
	r := NewRegistry[*counter]("test", time.Minute)

	id, err := r.Mount("client-1", &counter{}, func(c *counter) error {
		c.n = 1
		return nil
	})
	if err != nil {
		t.Fatalf("Mount() failed: %v", err)
	}

	err = r.Do("client-1", id, func(c *counter) error {
		c.n++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}

	var got int
	r.Do("client-1", id, func(c *counter) error { got = c.n; return nil })
	if got != 2 {
		t.Errorf("counter = %d, want 2", got)
	}
}

func TestMountReplacesPreviousInstance(t *testing.T) {
	r := NewRegistry[*counter]("test", time.Minute)

	first, _ := r.Mount("client-1", &counter{}, nil)
	second, _ := r.Mount("client-1", &counter{}, nil)

	if first == second {
		t.Fatal("Mount() reused an instance id")
	}
	if err := r.Do("client-1", first, func(*counter) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("Do(old id) error = %v, want ErrNotFound", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestMountReturnsLoadError(t *testing.T) {
	r := NewRegistry[*counter]("test", time.Minute)
	wantErr := errors.New("boom")

	id, err := r.Mount("client-1", &counter{}, func(*counter) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Errorf("Mount() error = %v, want %v", err, wantErr)
	}
	if id == "" {
		t.Error("Mount() should still return the instance id")
	}
}

func TestDoUnknownClient(t *testing.T) {
	r := NewRegistry[*counter]("test", time.Minute)

	if err := r.Do("nobody", "x", func(*counter) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("Do() error = %v, want ErrNotFound", err)
	}
}

func TestDrop(t *testing.T) {
	r := NewRegistry[*counter]("test", time.Minute)
	id, _ := r.Mount("client-1", &counter{}, nil)

	r.Drop("client-1")
	if err := r.Do("client-1", id, func(*counter) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("Do() after Drop() error = %v, want ErrNotFound", err)
	}
}

func TestSweep(t *testing.T) {
	r := NewRegistry[*counter]("test", time.Minute)
	now := time.Now()
	r.now = func() time.Time { return now }

	r.Mount("old", &counter{}, nil)
	now = now.Add(2 * time.Minute)
	fresh, _ := r.Mount("fresh", &counter{}, nil)

	if removed := r.Sweep(); removed != 1 {
		t.Errorf("Sweep() removed %d, want 1", removed)
	}
	if err := r.Do("fresh", fresh, func(*counter) error { return nil }); err != nil {
		t.Errorf("fresh instance was swept: %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r := NewRegistry[*counter]("test", time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestDoSerializesActions(t *testing.T) {
	r := NewRegistry[*counter]("test", time.Minute)
	id, _ := r.Mount("client-1", &counter{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Do("client-1", id, func(c *counter) error { c.n++; return nil })
		}()
	}
	wg.Wait()

	var got int
	r.Do("client-1", id, func(c *counter) error { got = c.n; return nil })
	if got != 100 {
		t.Errorf("counter = %d, want 100", got)
	}
}
