package slack

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDedupCapacity is the number of event IDs remembered by default.
const DefaultDedupCapacity = 10000

// Dedup remembers the most recent event IDs so redelivered events are
// processed once. The oldest ID is forgotten when capacity is reached.
type Dedup struct {
	ids      *lru.Cache[string, struct{}]
	capacity int
}

// NewDedup creates a gate remembering up to capacity IDs.
func NewDedup(capacity int) *Dedup {
	if capacity <= 0 {
		capacity = DefaultDedupCapacity
	}
	ids, _ := lru.New[string, struct{}](capacity) // errors only for capacity <= 0
	return &Dedup{ids: ids, capacity: capacity}
}

// Seen reports whether id was already recorded, recording it if not.
// A hit does not refresh the ID, so eviction stays in arrival order.
func (d *Dedup) Seen(id string) bool {
	seen, _ := d.ids.ContainsOrAdd(id, struct{}{})
	return seen
}

// Len returns the number of remembered IDs.
func (d *Dedup) Len() int {
	return d.ids.Len()
}
