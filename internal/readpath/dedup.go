package readpath

import (
	"fmt"
	"sync"
)

// Deduper coalesces identical in-flight requests: concurrent callers for the
// same key share one execution and each receives its own copy of the payload
// bytes, so awaiters can consume the body independently. The key is removed
// the moment the shared call settles — success or failure.
type deduperCall struct {
	wg      sync.WaitGroup
	payload []byte
	err     error
}

type Deduper struct {
	mu    sync.Mutex
	calls map[string]*deduperCall
}

func NewDeduper() *Deduper {
	return &Deduper{calls: make(map[string]*deduperCall)}
}

// DedupKey builds the canonical request identity.
func DedupKey(method, url string, body []byte) string {
	return fmt.Sprintf("%s:%s:%s", method, url, body)
}

// Do executes fn once per key among concurrent callers. Later callers for a
// settled key start a fresh execution — only *in-flight* requests coalesce.
func (d *Deduper) Do(key string, fn func() ([]byte, error)) ([]byte, error) {
	d.mu.Lock()
	if c, ok := d.calls[key]; ok {
		d.mu.Unlock()
		c.wg.Wait()
		return clonePayload(c.payload), c.err
	}
	c := &deduperCall{}
	c.wg.Add(1)
	d.calls[key] = c
	d.mu.Unlock()

	c.payload, c.err = fn()

	d.mu.Lock()
	delete(d.calls, key)
	d.mu.Unlock()
	c.wg.Done()

	return clonePayload(c.payload), c.err
}

// InFlight returns the number of requests currently pending.
func (d *Deduper) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func clonePayload(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
