package exchange

import (
	"sync"
	"time"
)

// Nonce hands out strictly increasing millisecond nonces. A clock that
// stalls or steps backwards still yields last+1.
type Nonce struct {
	mu    sync.Mutex
	last  int64
	clock func() time.Time
}

func NewNonce(clock func() time.Time) *Nonce {
	if clock == nil {
		clock = time.Now
	}
	return &Nonce{clock: clock}
}

func (n *Nonce) Next() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.clock().UnixMilli()
	if now <= n.last {
		now = n.last + 1
	}
	n.last = now
	return now
}
