// Package notify collects transient toast messages per browser until the
// next page render drains them.
package notify

import (
	"sync"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Toast struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier is what views use to surface the outcome of an action.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Queue is a Notifier that keeps toasts until drained.
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
}

func (q *Queue) Success(msg string) { q.push(LevelSuccess, msg) }
func (q *Queue) Error(msg string)   { q.push(LevelError, msg) }

func (q *Queue) push(level Level, msg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.toasts = append(q.toasts, Toast{Level: level, Message: msg})
	logrus.WithFields(logrus.Fields{"level": level, "message": msg}).Debug("Toast queued")
}

// Drain returns the queued toasts in order and empties the queue.
func (q *Queue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.toasts
	q.toasts = nil
	return out
}

// Center keeps one Queue per client id.
type Center struct {
	mu     sync.Mutex
	queues map[string]*Queue
}

func NewCenter() *Center {
	return &Center{queues: make(map[string]*Queue)}
}

// For returns a Notifier bound to clientID. The queue is looked up on each
// push, so toasts raised after a concurrent Drain are kept for the next one.
func (c *Center) For(clientID string) Notifier {
	return clientNotifier{c: c, clientID: clientID}
}

func (c *Center) push(clientID string, level Level, msg string) {
	c.mu.Lock()
	q, ok := c.queues[clientID]
	if !ok {
		q = &Queue{}
		c.queues[clientID] = q
	}
	q.push(level, msg)
	c.mu.Unlock()
}

// Drain empties and forgets the queue of clientID.
func (c *Center) Drain(clientID string) []Toast {
	c.mu.Lock()
	q, ok := c.queues[clientID]
	delete(c.queues, clientID)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return q.Drain()
}

type clientNotifier struct {
	c        *Center
	clientID string
}

func (n clientNotifier) Success(msg string) { n.c.push(n.clientID, LevelSuccess, msg) }
func (n clientNotifier) Error(msg string)   { n.c.push(n.clientID, LevelError, msg) }
