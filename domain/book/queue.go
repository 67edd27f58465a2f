package book

// OrderQueue is the FIFO of resting orders at one price level.
// The orders themselves are the list nodes.
type OrderQueue struct {
	head *Order
	tail *Order
}

func (q *OrderQueue) Head() *Order { return q.head }
func (q *OrderQueue) Tail() *Order { return q.tail }

// Append links o behind the current tail. Arrival order is never
// rearranged afterwards.
func (q *OrderQueue) Append(o *Order) {
	if q.head == nil {
		q.head = o
		q.tail = o
		return
	}
	q.tail.next = o
	o.prev = q.tail
	q.tail = o
}

// Remove splices o out of the queue in O(1) using its own links.
// Head and tail are both fixed up, including removal of the last
// element. Removing an order that is not in the queue is a no-op.
func (q *OrderQueue) Remove(o *Order) {
	if q.head == nil || o == nil {
		return
	}
	if o.prev == nil && o.next == nil && q.head != o {
		return // already detached
	}
	if q.head == o {
		q.head = o.next
	}
	if q.tail == o {
		q.tail = o.prev
	}
	if o.prev != nil {
		o.prev.next = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	}
	o.next = nil
	o.prev = nil
}

// Entries walks head to tail and returns the queue as a read model.
func (q *OrderQueue) Entries() []QueueEntry {
	var out []QueueEntry
	for o := q.head; o != nil; o = o.next {
		out = append(out, QueueEntry{ID: o.ID, Price: o.Price, Shares: o.Shares})
	}
	return out
}
