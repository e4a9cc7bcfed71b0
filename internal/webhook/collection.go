// ABOUTME: Immutable ordered key-to-record collection with session key assignment
// ABOUTME: Every mutation returns a new Collection; keys are not reused after deletion

package webhook

import (
	"math"
	"sort"
	"strconv"
)

// Entry is one keyed record in a Collection.
type Entry struct {
	Key    string
	Record Record
}

// Collection is an ordered list of keyed records. Iteration order follows
// insertion history. The zero value is an empty collection.
type Collection struct {
	entries []Entry
	// next is the key AddRecord hands out for a non-empty collection. It only
	// grows, so a deleted key is not handed out again.
	next int
}

// NewCollection builds a collection from a plain mapping. Numeric keys come
// first in numeric order, the rest follow lexicographically; the mapping
// itself carries no order.
func NewCollection(m map[string]Record) Collection {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, iok := parseKey(keys[i])
		nj, jok := parseKey(keys[j])
		switch {
		case iok && jok:
			if ni != nj {
				return ni < nj
			}
			return keys[i] < keys[j]
		case iok:
			return true
		case jok:
			return false
		default:
			return keys[i] < keys[j]
		}
	})

	var c Collection
	c.entries = make([]Entry, 0, len(keys))
	for _, k := range keys {
		c.entries = append(c.entries, Entry{Key: k, Record: m[k]})
		c.bump(k)
	}
	return c
}

// parseKey parses a key as a non-negative integer below math.MaxInt, so
// the counter can always move one past it.
func parseKey(key string) (int, bool) {
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 || n == math.MaxInt {
		return 0, false
	}
	return n, true
}

// bump advances the key counter past key. Unparsable keys count as 0.
func (c *Collection) bump(key string) {
	n, _ := parseKey(key)
	if n+1 > c.next {
		c.next = n + 1
	}
}

// Len returns the number of entries.
func (c Collection) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in iteration order.
func (c Collection) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Keys returns the keys in iteration order.
func (c Collection) Keys() []string {
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.Key
	}
	return keys
}

// Get returns the record stored at key.
func (c Collection) Get(key string) (Record, bool) {
	if i := c.index(key); i >= 0 {
		return c.entries[i].Record, true
	}
	return Record{}, false
}

func (c Collection) index(key string) int {
	for i, e := range c.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// NextKey returns the key AddRecord would assign: "0" for an empty
// collection, otherwise one past the highest key seen in this session.
func (c Collection) NextKey() string {
	if len(c.entries) == 0 {
		return "0"
	}
	return strconv.Itoa(c.next)
}

// clone returns a copy whose entries slice does not alias c's.
func (c Collection) clone() Collection {
	out := Collection{next: c.next}
	out.entries = make([]Entry, len(c.entries), len(c.entries)+1)
	copy(out.entries, c.entries)
	return out
}

// Set returns a collection with key bound to rec. An existing key keeps its
// position; a new key is appended.
func (c Collection) Set(key string, rec Record) Collection {
	out := c.clone()
	if i := out.index(key); i >= 0 {
		out.entries[i].Record = rec
		return out
	}
	out.entries = append(out.entries, Entry{Key: key, Record: rec})
	out.bump(key)
	return out
}

// Add returns a collection with a default record appended under NextKey,
// along with the key used. Once the counter is exhausted the lowest free
// numeric key is used instead; Add never overwrites an existing record.
func (c Collection) Add() (Collection, string) {
	key := c.NextKey()
	if c.index(key) >= 0 {
		key = c.lowestFreeKey()
	}
	return c.Set(key, Record{}), key
}

func (c Collection) lowestFreeKey() string {
	for n := 0; ; n++ {
		if key := strconv.Itoa(n); c.index(key) < 0 {
			return key
		}
	}
}

// Delete returns a collection without key. Deleting an absent key is a no-op.
func (c Collection) Delete(key string) Collection {
	i := c.index(key)
	if i < 0 {
		return c
	}
	out := Collection{next: c.next}
	out.entries = make([]Entry, 0, len(c.entries)-1)
	out.entries = append(out.entries, c.entries[:i]...)
	out.entries = append(out.entries, c.entries[i+1:]...)
	return out
}

// Map materializes the collection as a plain key-to-record mapping.
func (c Collection) Map() map[string]Record {
	m := make(map[string]Record, len(c.entries))
	for _, e := range c.entries {
		m[e.Key] = e.Record
	}
	return m
}
