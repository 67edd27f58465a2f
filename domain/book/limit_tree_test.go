package book

import (
	"math"
	"testing"
)

func liveOrder(id uint64, shares int64) *Order {
	return &Order{ID: id, Shares: shares}
}

func prices(levels []*Limit) []int64 {
	out := make([]int64, 0, len(levels))
	for _, l := range levels {
		out = append(out, l.Price)
	}
	return out
}

func samePrices(a []int64, b ...int64) bool {
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

func TestTreeInsertFindDelete(t *testing.T) {
	tr := NewLimitTree(math.MaxInt64 - 1)
	tr.Insert(100).addOrder(liveOrder(1, 10))
	tr.Insert(50).addOrder(liveOrder(2, 10))
	tr.Insert(150).addOrder(liveOrder(3, 10))

	if lvl := tr.Find(50); lvl == nil || lvl.Price != 50 {
		t.Fatal("Find(50) should return the level")
	}
	if tr.Find(75) != nil {
		t.Error("Find(75) should be absent")
	}

	tr.Delete(50)
	if tr.Find(50) != nil {
		t.Error("deleted level should be absent")
	}
}

func TestTreeInOrderAscendingAndFiltered(t *testing.T) {
	tr := NewLimitTree(math.MinInt64 + 1)
	for _, p := range []int64{300, 100, 200, 500, 400} {
		tr.Insert(p).addOrder(liveOrder(uint64(p), 1))
	}
	// an empty level sits in the tree but never in a traversal
	tr.Insert(250)

	got := prices(tr.InOrder())
	if !samePrices(got, 100, 200, 300, 400, 500) {
		t.Errorf("InOrder = %v, want ascending without empty levels", got)
	}
}

func TestTreeInsertExistingReturnsSameNode(t *testing.T) {
	tr := NewLimitTree(math.MaxInt64 - 1)
	a := tr.Insert(100)
	b := tr.Insert(100)
	if a != b {
		t.Error("Insert at an existing price should return the same node")
	}
}

func TestTreeDeleteLeafAndSingleChild(t *testing.T) {
	tr := NewLimitTree(math.MaxInt64 - 1)
	tr.Insert(100).addOrder(liveOrder(1, 1))
	tr.Insert(50).addOrder(liveOrder(2, 1))
	tr.Insert(25).addOrder(liveOrder(3, 1))

	// 25 is a leaf under 50
	tr.Delete(25)
	if !samePrices(prices(tr.InOrder()), 50, 100) {
		t.Fatalf("after leaf delete: %v", prices(tr.InOrder()))
	}

	// 50 now has no children; 100 keeps only its left link to it
	tr.Insert(75).addOrder(liveOrder(4, 1))
	tr.Delete(50) // single child (75) promoted
	if !samePrices(prices(tr.InOrder()), 75, 100) {
		t.Errorf("after single-child delete: %v", prices(tr.InOrder()))
	}
}

func TestTreeDeleteTwoChildrenPromotesSuccessor(t *testing.T) {
	tr := NewLimitTree(math.MaxInt64 - 1)
	// shape: 100 with left 50 (children 25, 75) and right 150
	for _, p := range []int64{100, 50, 150, 25, 75} {
		tr.Insert(p).addOrder(liveOrder(uint64(p), 1))
	}

	tr.Delete(50)

	got := prices(tr.InOrder())
	if !samePrices(got, 25, 75, 100, 150) {
		t.Fatalf("InOrder after delete = %v", got)
	}
	// the successor's queue must have moved with its price
	if lvl := tr.Find(75); lvl == nil || lvl.Head() == nil || lvl.Head().ID != 75 {
		t.Error("successor level should carry its own queue after promotion")
	}
	if tr.Find(50) != nil {
		t.Error("deleted price should be absent")
	}
}

func TestTreeSentinelSurvivesTraversalAndDeletes(t *testing.T) {
	bound := int64(math.MinInt64 + 1)
	tr := NewLimitTree(bound)
	tr.Insert(100).addOrder(liveOrder(1, 1))
	tr.Delete(100)

	if got := tr.InOrder(); len(got) != 0 {
		t.Errorf("InOrder = %v, want empty", prices(got))
	}
	if tr.Find(bound) == nil {
		t.Error("sentinel root must remain findable")
	}
}
