package credentials

import (
	"strings"
	"sync"
)

// suffixLen is the number of trailing characters of a credential that may
// appear in logs and error messages.
const suffixLen = 4

// Pool is an ordered, fixed list of credentials with a rotating cursor.
type Pool struct {
	mu     sync.Mutex
	keys   []string
	cursor int
}

// NewPool creates a pool from keys. Blank entries are dropped and
// surrounding whitespace is trimmed; order is preserved. An empty pool is
// valid: Current and Rotate report false and providers fail fast.
func NewPool(keys []string) *Pool {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			cleaned = append(cleaned, k)
		}
	}
	return &Pool{keys: cleaned}
}

// ParseList splits a comma, whitespace or newline separated credential list.
func ParseList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

// Current returns the credential at the cursor.
func (p *Pool) Current() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return "", false
	}
	return p.keys[p.cursor], true
}

// Rotate advances the cursor circularly and returns the new current
// credential. With a single credential the same value is returned.
func (p *Pool) Rotate() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return "", false
	}
	p.cursor = (p.cursor + 1) % len(p.keys)
	return p.keys[p.cursor], true
}

// Len returns the number of credentials in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Masked returns every credential reduced to its suffix, in pool order.
func (p *Pool) Masked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.keys))
	for i, k := range p.keys {
		out[i] = Mask(k)
	}
	return out
}

// Suffix returns the trailing characters of key that are safe to log.
// Keys shorter than twice suffixLen reveal at most half their length, so
// the result is always strictly shorter than key.
func Suffix(key string) string {
	if len(key) < 2*suffixLen {
		return key[len(key)-len(key)/2:]
	}
	return key[len(key)-suffixLen:]
}

// Mask formats key for display, hiding everything but its suffix.
func Mask(key string) string {
	if key == "" {
		return ""
	}
	return "..." + Suffix(key)
}
