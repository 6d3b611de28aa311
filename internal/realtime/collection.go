// Package realtime keeps the dashboard's local collections consistent with
// the server-authoritative stream of push events.
//
// Every mutation goes through a Collection method, so a record already
// applied is never inserted twice. Delivery is not guaranteed: events missed
// while the transport is disconnected are never replayed and the periodic
// refresh is what resynchronises the collections.
package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"dental-dashboard/pkg/response"
)

// Entity is a record identified by a stable, server-assigned id.
type Entity interface {
	EntityID() string
}

// Position is where ApplyInsert places new records. It is a display choice.
type Position int

const (
	Append Position = iota
	Prepend
)

// Collection is an owned, identity-merged set of records.
type Collection[T Entity] struct {
	name     string
	position Position
	log      *slog.Logger

	mu    sync.Mutex
	items []T
	// touched holds the sequence number of the last mutation of each record.
	touched map[string]uint64
	seq     uint64
	// refreshed is the stamp of the last refresh that was applied.
	refreshed uint64
}

func NewCollection[T Entity](name string, position Position, log *slog.Logger) *Collection[T] {
	return &Collection[T]{
		name:     name,
		position: position,
		log:      log.With(slog.String("collection", name)),
		touched:  make(map[string]uint64),
	}
}

func (c *Collection[T]) Name() string { return c.name }

// ApplyInsert inserts rec unless a record with the same id is present.
// It reports whether the collection changed.
func (c *Collection[T]) ApplyInsert(rec T) (bool, error) {
	const op = "realtime.Collection.ApplyInsert"

	id := rec.EntityID()
	if id == "" {
		return false, fmt.Errorf("%s: %w", op, response.ErrMissingID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(id) >= 0 {
		return false, nil
	}

	if c.position == Prepend {
		c.items = append([]T{rec}, c.items...)
	} else {
		c.items = append(c.items, rec)
	}
	c.touch(id)

	return true, nil
}

// ApplyUpdate runs fn on a copy of the record with the given id and stores
// the copy if fn reports a change. A missing id is a no-op.
func (c *Collection[T]) ApplyUpdate(id string, fn func(rec *T) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return false
	}

	updated := c.items[i]
	if !fn(&updated) {
		return false
	}
	c.items[i] = updated
	c.touch(id)

	return true
}

// ApplyStatusUpdate shallow-merges the top-level fields of patch into the
// record with the given id. An "_id" in the patch is ignored. A missing id is
// dropped, not queued.
func (c *Collection[T]) ApplyStatusUpdate(id string, patch json.RawMessage) (bool, error) {
	const op = "realtime.Collection.ApplyStatusUpdate"

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return false, nil
	}

	merged, err := shallowMerge(c.items[i], patch)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	c.items[i] = merged
	c.touch(id)

	return true, nil
}

// Stamp advances the mutation sequence and returns it. Take it before
// fetching the snapshot that will be passed to ApplyRefresh. Every call
// returns a new value, so of two overlapping refreshes only the one that
// started last can be applied once the other has been.
func (c *Collection[T]) Stamp() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

type RefreshResult struct {
	Applied  bool
	Replaced int
	Kept     int
	Dropped  int
}

// ApplyRefresh merges a full snapshot fetched after stamp was taken. A
// snapshot older than the last applied refresh is discarded. Otherwise the
// snapshot wins for every record except those a push touched after the
// stamp: those are kept as they are, whether or not the snapshot has them.
func (c *Collection[T]) ApplyRefresh(stamp uint64, snapshot []T) RefreshResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	if stamp < c.refreshed {
		c.log.Warn("discarding stale refresh",
			slog.Uint64("stamp", stamp),
			slog.Uint64("last_refresh", c.refreshed),
		)
		return RefreshResult{}
	}

	var res RefreshResult
	res.Applied = true

	newer := make(map[string]T)
	for _, rec := range c.items {
		if c.touched[rec.EntityID()] > stamp {
			newer[rec.EntityID()] = rec
		}
	}

	items := make([]T, 0, len(snapshot)+len(newer))
	touched := make(map[string]uint64, len(snapshot)+len(newer))
	seen := make(map[string]struct{}, len(snapshot))

	for _, rec := range snapshot {
		id := rec.EntityID()
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if local, ok := newer[id]; ok {
			items = append(items, local)
			touched[id] = c.touched[id]
			res.Kept++
			continue
		}
		items = append(items, rec)
		touched[id] = stamp
		res.Replaced++
	}

	// Pushed records the snapshot does not know about yet.
	var pushed []T
	for _, rec := range c.items {
		id := rec.EntityID()
		if _, ok := seen[id]; ok {
			continue
		}
		if _, ok := newer[id]; ok {
			pushed = append(pushed, rec)
			touched[id] = c.touched[id]
			res.Kept++
			continue
		}
		res.Dropped++
	}
	if c.position == Prepend {
		items = append(pushed, items...)
	} else {
		items = append(items, pushed...)
	}

	if res.Kept > 0 {
		c.log.Debug("refresh kept records pushed after its stamp",
			slog.Uint64("stamp", stamp),
			slog.Int("kept", res.Kept),
		)
	}

	c.items = items
	c.touched = touched
	c.refreshed = stamp

	return res
}

// Snapshot returns a copy of the records in display order.
func (c *Collection[T]) Snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Collection[T]) indexOf(id string) int {
	for i := range c.items {
		if c.items[i].EntityID() == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) touch(id string) {
	c.seq++
	c.touched[id] = c.seq
}
