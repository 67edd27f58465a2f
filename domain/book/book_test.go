package book

import (
	"testing"

	"github.com/rs/zerolog"
)

func newBook() *Book { return New(zerolog.Nop()) }

func submit(b *Book, tm int64, id uint64, shares, price int64, side Side) {
	b.HandleEvent(Event{Time: tm, Type: EventSubmission, OrderID: id, Shares: shares, Price: price, Side: side})
}

// checkAggregates verifies that every live level's counters match its
// queue contents on both sides.
func checkAggregates(t *testing.T, b *Book) {
	t.Helper()
	verify := func(lvl *Limit) {
		var vol int64
		n := 0
		for o := lvl.Head(); o != nil; o = o.Next() {
			vol += o.Shares
			n++
		}
		if lvl.TotalVolume != vol {
			t.Errorf("level %d: TotalVolume=%d, queue sums to %d", lvl.Price, lvl.TotalVolume, vol)
		}
		if lvl.NumOrders != n {
			t.Errorf("level %d: NumOrders=%d, queue has %d", lvl.Price, lvl.NumOrders, n)
		}
	}
	b.BidsWalk(verify)
	b.AsksWalk(verify)
}

func checkAscending(t *testing.T, b *Book) {
	t.Helper()
	bids, asks := b.AllLevels()
	for _, side := range [][]LevelInfo{bids, asks} {
		for i := 1; i < len(side); i++ {
			if side[i].Price <= side[i-1].Price {
				t.Errorf("levels not strictly ascending: %d then %d", side[i-1].Price, side[i].Price)
			}
		}
	}
}

func TestLifecycleScenario(t *testing.T) {
	b := newBook()

	// submit buy 100 @ 10.00
	submit(b, 1, 1, 100, 100000, Buy)
	bids, _ := b.AllLevels()
	if len(bids) != 1 || bids[0] != (LevelInfo{Price: 100000, TotalVolume: 100, NumOrders: 1}) {
		t.Fatalf("after first submit: %+v", bids)
	}
	if _, bid := b.NBBO(); bid != (Quote{Price: 100000, Ok: true}) {
		t.Fatalf("best bid = %+v", bid)
	}

	// second buy joins the same level behind the first
	submit(b, 2, 2, 50, 100000, Buy)
	if got := ids(b.OrdersAtLevel(100000)); !sameIDs(got, 1, 2) {
		t.Fatalf("queue = %v, want [1 2]", got)
	}
	bids, _ = b.AllLevels()
	if bids[0].TotalVolume != 150 || bids[0].NumOrders != 2 {
		t.Fatalf("level after second submit: %+v", bids[0])
	}

	// partial cancel leaves position untouched
	b.HandleEvent(Event{Time: 3, Type: EventCancel, OrderID: 1, Shares: 30, Price: 100000, Side: Buy})
	bids, _ = b.AllLevels()
	if bids[0].TotalVolume != 120 {
		t.Fatalf("volume after cancel = %d, want 120", bids[0].TotalVolume)
	}
	queue := b.OrdersAtLevel(100000)
	if !sameIDs(ids(queue), 1, 2) || queue[0].Shares != 70 {
		t.Fatalf("queue after cancel = %+v", queue)
	}

	// executing the remainder removes order 1 entirely
	b.HandleEvent(Event{Time: 4, Type: EventExecute, OrderID: 1, Shares: 70, Price: 100000, Side: Buy})
	bids, _ = b.AllLevels()
	if bids[0].TotalVolume != 50 || bids[0].NumOrders != 1 {
		t.Fatalf("level after execution: %+v", bids[0])
	}
	if got := ids(b.OrdersAtLevel(100000)); !sameIDs(got, 2) {
		t.Fatalf("queue after execution = %v, want [2]", got)
	}
	if len(b.VisibleExecutions()) != 1 || b.VisibleExecutions()[0].Shares != 70 {
		t.Fatalf("visible executions = %+v", b.VisibleExecutions())
	}
	if b.LiveOrders() != 1 {
		t.Fatalf("live orders = %d, want 1", b.LiveOrders())
	}

	// deleting the last order drops the level and clears the bid
	b.HandleEvent(Event{Time: 5, Type: EventDelete, OrderID: 2, Shares: 50, Price: 100000, Side: Buy})
	if b.OrdersAtLevel(100000) != nil {
		t.Fatal("level should be gone after last delete")
	}
	if _, bid := b.NBBO(); bid.Ok {
		t.Fatalf("best bid should be absent, got %+v", bid)
	}

	// hidden execution records only
	b.HandleEvent(Event{Time: 6, Type: EventExecuteHidden, Shares: 200, Price: 99500, Side: Sell})
	if b.LiveOrders() != 0 {
		t.Error("hidden execution must not touch the registry")
	}
	he := b.HiddenExecutions()
	if len(he) != 1 || he[0].Price != 99500 || he[0].Shares != 200 || he[0].Side != Sell {
		t.Fatalf("hidden executions = %+v", he)
	}

	checkAggregates(t, b)
}

func TestNBBOAcrossLevels(t *testing.T) {
	b := newBook()
	submit(b, 1, 1, 10, 99000, Buy)
	submit(b, 2, 2, 10, 100000, Buy)
	submit(b, 3, 3, 10, 101000, Sell)
	submit(b, 4, 4, 10, 100500, Sell)

	offer, bid := b.NBBO()
	if bid != (Quote{Price: 100000, Ok: true}) {
		t.Errorf("best bid = %+v", bid)
	}
	if offer != (Quote{Price: 100500, Ok: true}) {
		t.Errorf("best offer = %+v", offer)
	}

	// dropping the inside bid falls back to the next level
	b.HandleEvent(Event{Time: 5, Type: EventDelete, OrderID: 2, Price: 100000, Side: Buy})
	if _, bid := b.NBBO(); bid != (Quote{Price: 99000, Ok: true}) {
		t.Errorf("best bid after delete = %+v", bid)
	}
	checkAscending(t, b)
}

func TestSubmitDeleteRoundTrip(t *testing.T) {
	b := newBook()
	submit(b, 1, 1, 100, 100000, Buy)
	b.HandleEvent(Event{Time: 2, Type: EventDelete, OrderID: 1, Price: 100000, Side: Buy})

	if b.OrdersAtLevel(100000) != nil {
		t.Error("queue should be empty after round trip")
	}
	bids, _ := b.AllLevels()
	if len(bids) != 0 {
		t.Errorf("bid levels = %+v, want none", bids)
	}
	if b.LiveOrders() != 0 {
		t.Error("registry should be empty")
	}
}

func TestUnknownIDEventsAreDropped(t *testing.T) {
	b := newBook()
	submit(b, 1, 1, 100, 100000, Buy)
	before, _ := b.AllLevels()

	b.HandleEvent(Event{Time: 2, Type: EventCancel, OrderID: 999, Shares: 10, Price: 100000, Side: Buy})
	b.HandleEvent(Event{Time: 3, Type: EventDelete, OrderID: 999, Price: 100000, Side: Buy})
	b.HandleEvent(Event{Time: 4, Type: EventExecute, OrderID: 999, Shares: 10, Price: 100000, Side: Buy})

	after, _ := b.AllLevels()
	if len(after) != 1 || after[0] != before[0] {
		t.Errorf("levels mutated by unknown-id events: %+v -> %+v", before, after)
	}
	if b.LiveOrders() != 1 {
		t.Error("registry mutated by unknown-id events")
	}
	checkAggregates(t, b)
}

func TestUnrecognizedEventTypeStillRecordsHistory(t *testing.T) {
	b := newBook()
	submit(b, 1, 1, 100, 100000, Buy)
	b.HandleEvent(Event{Time: 2, Type: EventType(9), OrderID: 1})

	if got := len(b.SnapshotHistory()); got != 2 {
		t.Errorf("snapshot history length = %d, want 2", got)
	}
	if b.LiveOrders() != 1 {
		t.Error("unrecognized event must not mutate state")
	}
}

func TestOverReductionClampsToRemaining(t *testing.T) {
	b := newBook()
	submit(b, 1, 1, 100, 100000, Buy)

	// cancel more than remains: applied reduction clamps, log keeps the
	// tape's stated quantity
	b.HandleEvent(Event{Time: 2, Type: EventCancel, OrderID: 1, Shares: 500, Price: 100000, Side: Buy})

	queue := b.OrdersAtLevel(100000)
	if queue[0].Shares != 0 {
		t.Errorf("remaining = %d, want 0", queue[0].Shares)
	}
	bids, _ := b.AllLevels()
	if bids[0].TotalVolume != 0 {
		t.Errorf("level volume = %d, want 0", bids[0].TotalVolume)
	}
	if got := b.Cancellations()[0].Shares; got != 500 {
		t.Errorf("logged quantity = %d, want the stated 500", got)
	}
	checkAggregates(t, b)
}

func TestOverExecutionClampsAndRemoves(t *testing.T) {
	b := newBook()
	submit(b, 1, 1, 100, 100000, Buy)
	b.HandleEvent(Event{Time: 2, Type: EventExecute, OrderID: 1, Shares: 500, Price: 100000, Side: Buy})

	if b.LiveOrders() != 0 {
		t.Error("fully executed order should leave the registry")
	}
	if b.OrdersAtLevel(100000) != nil {
		t.Error("drained level should be gone")
	}
}

func TestCancelOnFilledOrderIsDropped(t *testing.T) {
	b := newBook()
	submit(b, 1, 1, 100, 100000, Buy)
	submit(b, 2, 2, 100, 100000, Buy)
	// drain order 1 by cancel, which leaves it resting at zero
	b.HandleEvent(Event{Time: 2, Type: EventCancel, OrderID: 1, Shares: 100, Price: 100000, Side: Buy})
	before := len(b.Cancellations())

	b.HandleEvent(Event{Time: 3, Type: EventCancel, OrderID: 1, Shares: 10, Price: 100000, Side: Buy})

	if got := len(b.Cancellations()); got != before {
		t.Errorf("cancel on drained order logged: %d entries, want %d", got, before)
	}
	checkAggregates(t, b)
}

func TestXLevelsNearestTouch(t *testing.T) {
	b := newBook()
	for i, p := range []int64{98000, 99000, 100000} {
		submit(b, int64(i), uint64(i+1), 10, p, Buy)
	}
	for i, p := range []int64{101000, 102000, 103000} {
		submit(b, int64(i+3), uint64(i+4), 10, p, Sell)
	}

	bids, asks := b.XLevels(2)
	if !samePrices(prices2(bids), 99000, 100000) {
		t.Errorf("bids = %v, want the two highest", prices2(bids))
	}
	if !samePrices(prices2(asks), 101000, 102000) {
		t.Errorf("asks = %v, want the two lowest", prices2(asks))
	}
}

func prices2(levels []LevelInfo) []int64 {
	out := make([]int64, 0, len(levels))
	for _, l := range levels {
		out = append(out, l.Price)
	}
	return out
}

func TestQueueAtBest(t *testing.T) {
	b := newBook()
	submit(b, 1, 1, 10, 100000, Buy)
	submit(b, 2, 2, 20, 100000, Buy)
	submit(b, 3, 3, 30, 100500, Sell)

	bid, ask := b.QueueAtBest()
	if !sameIDs(ids(bid), 1, 2) {
		t.Errorf("bid queue = %v", ids(bid))
	}
	if !sameIDs(ids(ask), 3) {
		t.Errorf("ask queue = %v", ids(ask))
	}
}

func TestSnapshotHistoryPerEvent(t *testing.T) {
	b := newBook()
	submit(b, 1, 1, 100, 100000, Buy)
	submit(b, 2, 2, 50, 100500, Sell)
	b.HandleEvent(Event{Time: 3, Type: EventDelete, OrderID: 1, Price: 100000, Side: Buy})

	hist := b.SnapshotHistory()
	if len(hist) != 3 {
		t.Fatalf("snapshot history length = %d, want 3", len(hist))
	}
	if len(hist[0].Bids) != 1 || len(hist[1].Asks) != 1 {
		t.Errorf("early snapshots wrong: %+v", hist[:2])
	}
	if len(hist[2].Bids) != 0 {
		t.Errorf("final snapshot should have no bids: %+v", hist[2])
	}
	if len(b.QueueHistory()) != 3 {
		t.Errorf("queue history length = %d, want 3", len(b.QueueHistory()))
	}
}

func TestCategoryLogsAccumulate(t *testing.T) {
	b := newBook()
	submit(b, 1, 1, 100, 100000, Buy)
	b.HandleEvent(Event{Time: 2, Type: EventCancel, OrderID: 1, Shares: 10, Price: 100000, Side: Buy})
	b.HandleEvent(Event{Time: 3, Type: EventExecute, OrderID: 1, Shares: 20, Price: 100000, Side: Buy})
	b.HandleEvent(Event{Time: 4, Type: EventDelete, OrderID: 1, Price: 100000, Side: Buy})
	b.HandleEvent(Event{Time: 5, Type: EventExecuteHidden, Shares: 5, Price: 99500, Side: Sell})

	if len(b.Submissions()) != 1 || len(b.Cancellations()) != 1 ||
		len(b.VisibleExecutions()) != 1 || len(b.Deletions()) != 1 ||
		len(b.HiddenExecutions()) != 1 {
		t.Errorf("log lengths: sub=%d can=%d exe=%d del=%d hid=%d",
			len(b.Submissions()), len(b.Cancellations()),
			len(b.VisibleExecutions()), len(b.Deletions()), len(b.HiddenExecutions()))
	}
}
