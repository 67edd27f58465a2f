package book

// Order is a resting order. Shares is the remaining quantity and only
// ever decreases; the queue links are owned by the level's OrderQueue.
type Order struct {
	ID        uint64
	Price     int64
	Shares    int64
	EntryTime int64
	Side      Side

	next *Order
	prev *Order
}

// Next returns the order behind this one in its level queue.
func (o *Order) Next() *Order { return o.next }

// Prev returns the order ahead of this one in its level queue.
func (o *Order) Prev() *Order { return o.prev }

// QueueEntry is the read model of a resting order, head-to-tail order
// preserved by the queries that return it.
type QueueEntry struct {
	ID     uint64
	Price  int64
	Shares int64
}
