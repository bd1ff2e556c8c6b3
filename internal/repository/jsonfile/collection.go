package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// Collection is a list of records persisted as a single JSON array.
// Every mutation rewrites the whole file; mu serializes read-modify-write
// within the process.
type Collection[T any] struct {
	path string
	idOf func(*T) string
	mu   sync.Mutex
}

// NewCollection binds a collection to path. idOf returns a record's id.
func NewCollection[T any](path string, idOf func(*T) string) *Collection[T] {
	return &Collection[T]{path: path, idOf: idOf}
}

// load reads the file. A missing or corrupt file is an empty collection.
func (c *Collection[T]) load() []T {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("path", c.path).Msg("failed to read collection, treating as empty")
		}
		return []T{}
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warn().Err(err).Str("path", c.path).Msg("corrupt collection file, treating as empty")
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}

// save replaces the file atomically through a temp file and rename
func (c *Collection[T]) save(items []T) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(c.path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(c.path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(c.path), err)
	}
	return nil
}

// All returns every record in file order
func (c *Collection[T]) All() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Find returns a copy of the record with the given id
func (c *Collection[T]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.load() {
		if c.idOf(&item) == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Prepend inserts item at the front of the collection
func (c *Collection[T]) Prepend(item T) error {
	return c.Mutate(func(items []T) ([]T, error) {
		return append([]T{item}, items...), nil
	})
}

// Delete removes the record with the given id and reports whether it existed
func (c *Collection[T]) Delete(id string) (bool, error) {
	found := false
	err := c.Mutate(func(items []T) ([]T, error) {
		kept := items[:0]
		for _, item := range items {
			if c.idOf(&item) == id {
				found = true
				continue
			}
			kept = append(kept, item)
		}
		if !found {
			return nil, errUnchanged
		}
		return kept, nil
	})
	return found, err
}

// Update applies fn to the record with the given id and saves the collection.
// It returns false when no record matches.
func (c *Collection[T]) Update(id string, fn func(*T) error) (T, bool, error) {
	var updated T
	found := false
	err := c.Mutate(func(items []T) ([]T, error) {
		for i := range items {
			if c.idOf(&items[i]) != id {
				continue
			}
			found = true
			if err := fn(&items[i]); err != nil {
				return nil, err
			}
			updated = items[i]
			return items, nil
		}
		return nil, errUnchanged
	})
	return updated, found, err
}

// errUnchanged aborts a Mutate without writing
var errUnchanged = errors.New("unchanged")

// Mutate loads the collection, applies fn and saves the result while holding
// the collection lock. Returning errUnchanged skips the write.
func (c *Collection[T]) Mutate(fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := fn(c.load())
	if err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	return c.save(items)
}
