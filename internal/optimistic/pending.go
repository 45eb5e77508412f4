package optimistic

import (
	"context"
	"sync"
)

// Pending is a change that is already visible and whose request has not
// been sent yet. Send runs the request and reconciles; calling it again
// returns the first result.
type Pending struct {
	once sync.Once
	send func(context.Context) error
	err  error
}

// NewPending wraps send.
func NewPending(send func(context.Context) error) *Pending {
	return &Pending{send: send}
}

// Send performs the request and reconciliation.
func (p *Pending) Send(ctx context.Context) error {
	p.once.Do(func() { p.err = p.send(ctx) })
	return p.err
}
