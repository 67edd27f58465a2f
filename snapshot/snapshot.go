package snapshot

import "time"

// Snapshot is the durable form of the book's resting state: every live
// order with enough detail to re-seat it. Category logs and histories
// are not persisted; they restart with the process.
type Snapshot struct {
	Seq     uint64
	Created time.Time
	Orders  []OrderEntry
}

// OrderEntry preserves queue position implicitly: entries are written
// level by level, head to tail, and restored in the same order.
type OrderEntry struct {
	ID        uint64
	Side      int8
	Price     int64
	Shares    int64
	EntryTime int64
}
