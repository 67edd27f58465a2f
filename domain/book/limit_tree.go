package book

// Limit is one price level: a BST node keyed by price that owns the
// level's order queue and its running aggregates. TotalVolume is the sum
// of remaining shares over the queue, NumOrders its length.
type Limit struct {
	Price       int64
	TotalVolume int64
	NumOrders   int

	queue OrderQueue
	left  *Limit
	right *Limit
}

// Head returns the first order in the level's queue.
func (l *Limit) Head() *Order { return l.queue.Head() }

// Entries returns the level's queue head-to-tail.
func (l *Limit) Entries() []QueueEntry { return l.queue.Entries() }

func (l *Limit) addOrder(o *Order) {
	l.queue.Append(o)
	l.TotalVolume += o.Shares
	l.NumOrders++
}

func (l *Limit) removeOrder(o *Order) {
	l.queue.Remove(o)
	l.TotalVolume -= o.Shares
	l.NumOrders--
}

func (l *Limit) reduceVolume(shares int64) {
	l.TotalVolume -= shares
}

// removable reports the sole condition under which a level may leave the
// tree: no volume and no orders.
func (l *Limit) removable() bool {
	return l.TotalVolume == 0 && l.NumOrders == 0
}

// LimitTree is the ordered index of one side's price levels. It is a
// plain unbalanced BST: height follows insertion order, which is
// acceptable for tape replay and keeps deletion semantics simple.
//
// The tree is never structurally empty: it is rooted at a sentinel bound
// (an extreme price with no orders) that real events never target, so
// descent always has a starting comparison point.
type LimitTree struct {
	root *Limit
}

// NewLimitTree returns a tree rooted at the sentinel bound price.
func NewLimitTree(bound int64) *LimitTree {
	return &LimitTree{root: &Limit{Price: bound}}
}

// Find descends by price comparison and returns the level, or nil.
func (t *LimitTree) Find(price int64) *Limit {
	n := t.root
	for n != nil {
		switch {
		case price < n.Price:
			n = n.left
		case price > n.Price:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

// Insert returns the level at price, creating an empty leaf at the first
// free slot on the descent path if none exists.
func (t *LimitTree) Insert(price int64) *Limit {
	n := t.root
	for {
		switch {
		case price < n.Price:
			if n.left == nil {
				n.left = &Limit{Price: price}
				return n.left
			}
			n = n.left
		case price > n.Price:
			if n.right == nil {
				n.right = &Limit{Price: price}
				return n.right
			}
			n = n.right
		default:
			return n
		}
	}
}

// Delete removes the level at price, if present.
func (t *LimitTree) Delete(price int64) {
	t.root = deleteLimit(t.root, price)
}

func deleteLimit(n *Limit, price int64) *Limit {
	if n == nil {
		return nil
	}
	switch {
	case price < n.Price:
		n.left = deleteLimit(n.left, price)
	case price > n.Price:
		n.right = deleteLimit(n.right, price)
	default:
		if n.right == nil {
			return n.left
		}
		if n.left == nil {
			return n.right
		}
		// Two children: promote the in-order successor (minimum of the
		// right subtree) into this node, then delete its old slot.
		s := n.right
		for s.left != nil {
			s = s.left
		}
		n.Price = s.Price
		n.TotalVolume = s.TotalVolume
		n.NumOrders = s.NumOrders
		n.queue = s.queue
		n.right = deleteLimit(n.right, s.Price)
	}
	return n
}

// InOrder returns the side's levels in ascending price order. Levels
// with no live orders are filtered out; that covers the sentinel and any
// level observed between draining and removal.
func (t *LimitTree) InOrder() []*Limit {
	var out []*Limit
	var walk func(*Limit)
	walk = func(n *Limit) {
		if n == nil {
			return
		}
		walk(n.left)
		if n.NumOrders != 0 {
			out = append(out, n)
		}
		walk(n.right)
	}
	walk(t.root)
	return out
}
