// Package handles keeps the process-wide mapping from asset URLs to the
// explicit handle names they were registered under, scoped per Go type.
//
// Asset annotations without an explicit handle register under the md5 hex
// digest of the asset URL; those with one record the digest here so other
// code can still refer to the asset by its original path.
package handles

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"reflect"
	"sort"
	"sync"
)

var (
	// ErrNilType is returned when a nil reflect.Type is provided.
	ErrNilType = errors.New("handles: nil reflect.Type provided")
	// ErrEmptyHandle is returned when an empty handle is recorded.
	ErrEmptyHandle = errors.New("handles: empty handle provided")
)

// Hash returns the digest an asset URL is registered under by default.
func Hash(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Entry is one recorded URL digest.
type Entry struct {
	Hash   string
	Handle string
}

// Table is safe for concurrent use.
type Table struct {
	mu sync.RWMutex
	m  map[reflect.Type]map[string]string
}

// New creates an empty table.
func New() *Table {
	return &Table{m: make(map[reflect.Type]map[string]string)}
}

func normalize(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// Record maps the digest of url to handle for type t. Recording the same
// pair again is a no-op; a different handle for the same URL replaces the
// previous one.
func (tb *Table) Record(t reflect.Type, url, handle string) error {
	t = normalize(t)
	if t == nil {
		return ErrNilType
	}
	if handle == "" {
		return ErrEmptyHandle
	}
	h := Hash(url)

	tb.mu.Lock()
	defer tb.mu.Unlock()
	byHash, ok := tb.m[t]
	if !ok {
		byHash = make(map[string]string)
		tb.m[t] = byHash
	}
	byHash[h] = handle
	return nil
}

// Lookup returns the explicit handle recorded for url on type t.
func (tb *Table) Lookup(t reflect.Type, url string) (string, bool) {
	t = normalize(t)
	if t == nil {
		return "", false
	}
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	h, ok := tb.m[t][Hash(url)]
	return h, ok
}

// Resolve returns the handle an asset at url is registered under on type t:
// the recorded explicit handle, or the URL digest.
func (tb *Table) Resolve(t reflect.Type, url string) string {
	if h, ok := tb.Lookup(t, url); ok {
		return h
	}
	return Hash(url)
}

// Entries returns a snapshot of the entries of type t sorted by digest.
func (tb *Table) Entries(t reflect.Type) []Entry {
	t = normalize(t)
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	out := make([]Entry, 0, len(tb.m[t]))
	for h, handle := range tb.m[t] {
		out = append(out, Entry{Hash: h, Handle: handle})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

// Reset clears every entry.
func (tb *Table) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.m = make(map[reflect.Type]map[string]string)
}
