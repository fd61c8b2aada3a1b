package generation

import (
	"context"
	"sync"
)

// Token is the cancellation handle of one run. It is fired by Cancel and
// never reset; a new run gets a new token.
type Token struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewToken derives a token from parent.
func NewToken(parent context.Context) *Token {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Token{ctx: ctx, cancel: cancel}
}

// Cancel fires the token. Safe to call more than once.
func (t *Token) Cancel() {
	if t == nil {
		return
	}
	t.once.Do(t.cancel)
}

// Cancelled reports whether the token or its parent has fired.
func (t *Token) Cancelled() bool {
	return t == nil || t.ctx.Err() != nil
}

// Context is cancelled together with the token.
func (t *Token) Context() context.Context {
	if t == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return t.ctx
}
