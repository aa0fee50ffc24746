package target

import "sync/atomic"

// Counter tracks how many tokens are outstanding. The count only changes
// through Acquire and Token.Release, so it always equals the number of live
// tokens.
type Counter struct {
	n atomic.Int64
}

// Count returns the number of outstanding tokens.
func (c *Counter) Count() int { return int(c.n.Load()) }

// Acquire mints a new token.
func (c *Counter) Acquire() *Token {
	c.n.Add(1)
	return &Token{c: c}
}

// TryAcquireExclusive mints a token only if none is outstanding.
func (c *Counter) TryAcquireExclusive() (*Token, bool) {
	if !c.n.CompareAndSwap(0, 1) {
		return nil, false
	}
	return &Token{c: c}, true
}

// Token is a guard for one unit of a Counter. Release is idempotent.
type Token struct {
	c        *Counter
	released atomic.Bool
}

// Release gives the token back. Only the first call has an effect.
func (t *Token) Release() {
	if t == nil || !t.released.CompareAndSwap(false, true) {
		return
	}
	t.c.n.Add(-1)
}
