package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// pollTimeout bounds each individual provider poll.
const pollTimeout = 2 * time.Second

// Authorization failure modes, kept distinct so callers can tell "the user
// never finished" from "the user said no".
var (
	ErrAuthorizationTimeout = errors.New("authorization not completed within the wait bound")
	ErrAuthorizationDenied  = errors.New("authorization was denied")
)

// Broker manages per-service OAuth session lifecycle:
// no session -> pending -> completed.
//
// At most one pending session exists per service; a second Initiate while
// one is pending returns the existing session. Completed sessions are
// cached and reused.
type Broker struct {
	provider Provider

	mu        sync.Mutex
	pending   map[string]OAuthSession
	completed map[string]OAuthSession

	// Collapses concurrent session creation for the same service into a
	// single provider call.
	creating singleflight.Group
}

// NewBroker creates a broker over the given provider.
func NewBroker(provider Provider) *Broker {
	return &Broker{
		provider:  provider,
		pending:   make(map[string]OAuthSession),
		completed: make(map[string]OAuthSession),
	}
}

// Initiate returns an authorization session for the service. A cached
// completed session is reused as-is; an existing pending session is
// returned rather than creating a duplicate; otherwise a new pending
// session is created.
func (b *Broker) Initiate(ctx context.Context, service string) (OAuthSession, error) {
	b.mu.Lock()
	if sess, ok := b.completed[service]; ok {
		b.mu.Unlock()
		return sess, nil
	}
	if sess, ok := b.pending[service]; ok {
		b.mu.Unlock()
		return sess, nil
	}
	b.mu.Unlock()

	// Concurrent Initiates for the same service share one creation; the
	// provider is hit at most once per flight.
	v, err, _ := b.creating.Do(service, func() (any, error) {
		b.mu.Lock()
		if sess, ok := b.completed[service]; ok {
			b.mu.Unlock()
			return sess, nil
		}
		if sess, ok := b.pending[service]; ok {
			b.mu.Unlock()
			return sess, nil
		}
		b.mu.Unlock()

		sess, err := b.provider.CreateSession(ctx, service)
		if err != nil {
			return OAuthSession{}, fmt.Errorf("initiate failed for %s: %w", service, err)
		}

		b.mu.Lock()
		b.pending[service] = sess
		b.mu.Unlock()
		log.Printf("[oauth] created session %s for %s", sess.ID, service)
		return sess, nil
	})
	if err != nil {
		return OAuthSession{}, err
	}
	return v.(OAuthSession), nil
}

// Poll checks whether the tracked pending session for a service has
// completed. Returns the session and true once completed. A session that
// is still pending is a normal outcome: (session, false, nil).
func (b *Broker) Poll(ctx context.Context, service string) (OAuthSession, bool, error) {
	b.mu.Lock()
	if sess, ok := b.completed[service]; ok {
		b.mu.Unlock()
		return sess, true, nil
	}
	sess, ok := b.pending[service]
	b.mu.Unlock()
	if !ok {
		return OAuthSession{}, false, fmt.Errorf("no authorization session tracked for %s", service)
	}

	state, token, err := b.provider.PollSession(ctx, service, sess.ID, pollTimeout)
	if err != nil {
		// Inconclusive poll: remain pending.
		log.Printf("[oauth] poll for %s inconclusive: %v", service, err)
		return sess, false, nil
	}

	switch state {
	case StateCompleted:
		b.mu.Lock()
		sess.Status = StateCompleted
		sess.Token = token
		b.completed[service] = sess
		delete(b.pending, service)
		b.mu.Unlock()
		log.Printf("[oauth] session %s completed for %s", sess.ID, service)
		return sess, true, nil
	case StateDenied:
		b.mu.Lock()
		delete(b.pending, service)
		b.mu.Unlock()
		return OAuthSession{}, false, ErrAuthorizationDenied
	default:
		return sess, false, nil
	}
}

// AwaitCompletion polls on an interval until the service is authorized or
// maxWait elapses. Timeout and denial are reported as distinct errors.
func (b *Broker) AwaitCompletion(ctx context.Context, service string, maxWait, pollInterval time.Duration) (OAuthSession, error) {
	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		sess, done, err := b.Poll(ctx, service)
		if err != nil {
			return OAuthSession{}, err
		}
		if done {
			return sess, nil
		}
		if time.Now().After(deadline) {
			return OAuthSession{}, fmt.Errorf("%s: %w", service, ErrAuthorizationTimeout)
		}

		select {
		case <-ctx.Done():
			return OAuthSession{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Completed returns the cached completed session for a service, if any.
func (b *Broker) Completed(service string) (OAuthSession, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sess, ok := b.completed[service]
	return sess, ok
}
