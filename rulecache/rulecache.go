// Package rulecache memoizes rewrite-rule compilation in a BadgerDB-backed
// store: compiling a rule means parsing its LHS/RHS pattern text against a
// lang.Language, a pure function of (language, lhs text, rhs text), so the
// cache keys on a digest of exactly those three values and skips
// re-parsing on a hit.
//
// It never touches e-graph state: what's cached is compiled pattern ASTs,
// not classes or proofs, so it does not contradict the engine's own
// no-persistence stance on the e-graph itself (see DESIGN.md).
package rulecache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"

	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/pattern"
)

// ErrNotFound names a digest with no cached compilation. GetOrCompile
// does not return it: a miss is compiled and stored instead.
var ErrNotFound = errors.New("rulecache: rule not found")

// Options configures the cache's BadgerDB instance.
type Options struct {
	// DataDir is where BadgerDB stores its files. Required unless InMemory.
	DataDir string
	// InMemory runs BadgerDB in memory-only mode, for tests.
	InMemory bool
}

// Cache is a content-addressed store of compiled rewrite patterns.
type Cache struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// Open opens (creating if needed) a rule cache at the given options.
func Open(opts Options) (*Cache, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("rulecache: opening badger: %w", err)
	}
	return &Cache{db: db}, nil
}

// OpenInMemory opens an in-memory cache, for tests and short-lived CLI runs.
func OpenInMemory() (*Cache, error) {
	return Open(Options{InMemory: true})
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}

// digest fingerprints exactly the inputs Compile's output depends on:
// the language name and the two pattern texts. name is deliberately
// excluded — it only labels the resulting Compiled/Rewrite, it never
// changes how the text parses.
func digest(langName, lhsText, rhsText string) []byte {
	h := xxhash.New()
	_, _ = h.WriteString(langName)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(lhsText)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(rhsText)
	sum := h.Sum64()
	return []byte(fmt.Sprintf("compiled\x00%016x", sum))
}

func (c *Cache) lookup(key []byte) (pattern.Compiled, bool, error) {
	var out pattern.Compiled
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&out); err != nil {
				return err
			}
			found = true
			return nil
		})
	})
	return out, found, err
}

func (c *Cache) store(key []byte, compiled pattern.Compiled) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(compiled); err != nil {
		return fmt.Errorf("rulecache: encoding compiled rule %q: %w", compiled.Name, err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, buf.Bytes())
	})
}

// GetOrCompile serves a cached pattern.Compiled for (langName, lhsText,
// rhsText) if one is stored, compiling and storing it on a miss. name is
// only carried through to the returned Compiled's Name field (and thus
// into any Rewrite built from it); it does not participate in the cache
// key, since it has no bearing on how lhsText/rhsText parse.
func (c *Cache) GetOrCompile(lng lang.Language, langName, name, lhsText, rhsText string) (pattern.Compiled, error) {
	key := digest(langName, lhsText, rhsText)

	if hit, ok, err := c.lookup(key); err != nil {
		return pattern.Compiled{}, fmt.Errorf("rulecache: looking up rule %q: %w", name, err)
	} else if ok {
		hit.Name = name
		return hit, nil
	}

	compiled, err := pattern.Compile(lng, langName, name, lhsText, rhsText)
	if err != nil {
		return pattern.Compiled{}, err
	}
	if err := c.store(key, compiled); err != nil {
		return pattern.Compiled{}, err
	}
	return compiled, nil
}
