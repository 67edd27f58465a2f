package book

import "testing"

func ids(entries []QueueEntry) []uint64 {
	out := make([]uint64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func sameIDs(a []uint64, b ...uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestQueueAppendPreservesArrival(t *testing.T) {
	var q OrderQueue
	q.Append(&Order{ID: 1})
	q.Append(&Order{ID: 2})
	q.Append(&Order{ID: 3})

	if got := ids(q.Entries()); !sameIDs(got, 1, 2, 3) {
		t.Errorf("queue order = %v, want [1 2 3]", got)
	}
	if q.Head().ID != 1 || q.Tail().ID != 3 {
		t.Errorf("head/tail = %d/%d, want 1/3", q.Head().ID, q.Tail().ID)
	}
}

func TestQueueRemoveMiddle(t *testing.T) {
	var q OrderQueue
	a, b, c := &Order{ID: 1}, &Order{ID: 2}, &Order{ID: 3}
	q.Append(a)
	q.Append(b)
	q.Append(c)

	q.Remove(b)

	if got := ids(q.Entries()); !sameIDs(got, 1, 3) {
		t.Errorf("queue order = %v, want [1 3]", got)
	}
	if b.Next() != nil || b.Prev() != nil {
		t.Error("removed order should have nil links")
	}
}

func TestQueueRemoveHeadAndTail(t *testing.T) {
	var q OrderQueue
	a, b, c := &Order{ID: 1}, &Order{ID: 2}, &Order{ID: 3}
	q.Append(a)
	q.Append(b)
	q.Append(c)

	q.Remove(a)
	if q.Head() != b {
		t.Errorf("head = %v, want order 2", q.Head())
	}

	q.Remove(c)
	if q.Tail() != b {
		t.Errorf("tail = %v, want order 2", q.Tail())
	}
}

func TestQueueRemoveLastElementEmptiesBothEnds(t *testing.T) {
	var q OrderQueue
	a := &Order{ID: 1}
	q.Append(a)
	q.Remove(a)

	if q.Head() != nil || q.Tail() != nil {
		t.Error("empty queue should have nil head and tail")
	}
	if q.Entries() != nil {
		t.Error("empty queue should yield no entries")
	}
}

func TestQueueRemoveDetachedIsNoop(t *testing.T) {
	var q OrderQueue
	a, b := &Order{ID: 1}, &Order{ID: 2}
	q.Append(a)
	q.Append(b)

	stranger := &Order{ID: 99}
	q.Remove(stranger)
	q.Remove(nil)

	if got := ids(q.Entries()); !sameIDs(got, 1, 2) {
		t.Errorf("queue order = %v, want [1 2]", got)
	}
}
