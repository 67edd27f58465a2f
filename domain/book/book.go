package book

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"tapebook/infra/metrics"
)

// Sentinel bounds for the two trees. Real tape prices never reach
// either, so the sentinels are never delete targets and are filtered
// from every traversal (they hold no orders).
const (
	bidBound = math.MinInt64 + 1
	askBound = math.MaxInt64 - 1
)

// LogEntry is one row of a category log. OrderID is zero for hidden
// executions, which have no resting order representation.
type LogEntry struct {
	Time    int64
	OrderID uint64
	Price   int64
	Shares  int64
	Side    Side
}

// LevelInfo is the (price, volume, order count) read model of a level.
type LevelInfo struct {
	Price       int64
	TotalVolume int64
	NumOrders   int
}

// Quote is a best price that may be absent when a side is empty.
type Quote struct {
	Price int64
	Ok    bool
}

// Snapshot is the full-depth view of both sides after one event.
type Snapshot struct {
	Time int64
	Bids []LevelInfo
	Asks []LevelInfo
}

// QueueSnapshot captures the order queues at up to five levels per side
// after one event, innermost level last for bids and first for asks.
type QueueSnapshot struct {
	Time int64
	Bids [][]QueueEntry
	Asks [][]QueueEntry
}

// Book tracks the live state of the limit order book. It owns one
// LimitTree per side, the id registry, the append-only category logs
// and the per-event histories. It is strictly single-writer: callers
// embedding it in a concurrent service must serialize HandleEvent and
// the queries behind one exclusion discipline.
type Book struct {
	buy  *LimitTree
	sell *LimitTree

	// orders is the non-owning id index over the queues. An entry is
	// removed exactly when its order leaves its queue.
	orders map[uint64]*Order

	bestBid   Quote
	bestOffer Quote

	submissions   []LogEntry
	cancellations []LogEntry
	deletions     []LogEntry
	visibleExecs  []LogEntry
	hiddenExecs   []LogEntry

	snapshots []Snapshot
	queueHist []QueueSnapshot

	log zerolog.Logger
}

// New returns an empty book. The logger is injected so the core carries
// no process-wide state.
func New(log zerolog.Logger) *Book {
	return &Book{
		buy:    NewLimitTree(bidBound),
		sell:   NewLimitTree(askBound),
		orders: make(map[uint64]*Order),
		log:    log.With().Str("component", "book").Logger(),
	}
}

// HandleEvent applies one tape event. Every failure mode is local: the
// event is dropped, the book stays usable. After each incoming event the
// snapshot histories are appended and the NBBO is recomputed.
func (b *Book) HandleEvent(ev Event) {
	switch ev.Type {
	case EventSubmission:
		b.submit(ev)
	case EventCancel:
		b.cancel(ev)
	case EventDelete:
		b.remove(ev)
	case EventExecute:
		b.execute(ev)
	case EventExecuteHidden:
		b.executeHidden(ev)
	default:
		b.log.Debug().Uint8("type", uint8(ev.Type)).Msg("unrecognized event type ignored")
	}

	b.snapshots = append(b.snapshots, Snapshot{Time: ev.Time, Bids: b.levels(b.buy), Asks: b.levels(b.sell)})
	b.queueHist = append(b.queueHist, b.captureQueues(ev.Time))
	b.updateNBBO()
}

func (b *Book) treeFor(s Side) *LimitTree {
	if s == Buy {
		return b.buy
	}
	return b.sell
}

func (b *Book) lookup(id uint64) (*Order, error) {
	if o, ok := b.orders[id]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("order %d: %w", id, ErrUnknownOrder)
}

func (b *Book) levelFor(o *Order) (*Limit, error) {
	if lvl := b.treeFor(o.Side).Find(o.Price); lvl != nil {
		return lvl, nil
	}
	return nil, fmt.Errorf("%s level %d: %w", o.Side, o.Price, ErrUnknownLevel)
}

// effective clamps a requested reduction to the order's remaining
// shares so neither the order nor its level aggregate can go negative.
func (b *Book) effective(o *Order, requested int64) int64 {
	if requested <= o.Shares {
		return requested
	}
	metrics.ClampedReductionsTotal.Inc()
	b.log.Warn().
		Uint64("order_id", o.ID).
		Int64("requested", requested).
		Int64("remaining", o.Shares).
		Msg("reduction exceeds remaining shares, clamped")
	return o.Shares
}

func (b *Book) submit(ev Event) {
	o := &Order{
		ID:        ev.OrderID,
		Price:     ev.Price,
		Shares:    ev.Shares,
		EntryTime: ev.Time,
		Side:      ev.Side,
	}
	b.orders[o.ID] = o
	b.treeFor(o.Side).Insert(o.Price).addOrder(o)
	b.submissions = append(b.submissions, LogEntry{Time: ev.Time, OrderID: o.ID, Price: o.Price, Shares: ev.Shares, Side: o.Side})
	b.log.Debug().
		Uint64("order_id", o.ID).
		Int64("price", o.Price).
		Int64("shares", o.Shares).
		Str("side", o.Side.String()).
		Msg("order submitted")
}

func (b *Book) cancel(ev Event) {
	o, err := b.lookup(ev.OrderID)
	if err != nil {
		metrics.UnknownOrdersTotal.Inc()
		b.log.Debug().Err(err).Msg("cancel dropped")
		return
	}
	if o.Shares == 0 {
		b.log.Debug().Uint64("order_id", o.ID).Msg("cancel on fully filled order dropped")
		return
	}
	eff := b.effective(o, ev.Shares)
	if lvl, err := b.levelFor(o); err != nil {
		metrics.UnknownLevelsTotal.Inc()
		b.log.Warn().Err(err).Msg("cancel level lookup failed")
	} else {
		lvl.reduceVolume(eff)
	}
	o.Shares -= eff
	b.cancellations = append(b.cancellations, LogEntry{Time: ev.Time, OrderID: o.ID, Price: o.Price, Shares: ev.Shares, Side: o.Side})
	b.log.Debug().
		Uint64("order_id", o.ID).
		Int64("cancelled", eff).
		Int64("remaining", o.Shares).
		Msg("order cancelled")
}

func (b *Book) remove(ev Event) {
	o, err := b.lookup(ev.OrderID)
	if err != nil {
		metrics.UnknownOrdersTotal.Inc()
		b.log.Debug().Err(err).Msg("delete dropped")
		return
	}
	if lvl, err := b.levelFor(o); err != nil {
		metrics.UnknownLevelsTotal.Inc()
		b.log.Warn().Err(err).Msg("delete level lookup failed")
	} else {
		lvl.removeOrder(o)
		if lvl.removable() {
			b.treeFor(o.Side).Delete(lvl.Price)
			b.log.Debug().Int64("price", o.Price).Str("side", o.Side.String()).Msg("empty level removed")
		}
	}
	// Queue membership and registry entry go together.
	delete(b.orders, o.ID)
	b.deletions = append(b.deletions, LogEntry{Time: ev.Time, OrderID: o.ID, Price: o.Price, Shares: o.Shares, Side: o.Side})
	b.log.Debug().Uint64("order_id", o.ID).Msg("order deleted")
}

func (b *Book) execute(ev Event) {
	o, err := b.lookup(ev.OrderID)
	if err != nil {
		metrics.UnknownOrdersTotal.Inc()
		b.log.Debug().Err(err).Msg("execution dropped")
		return
	}
	eff := b.effective(o, ev.Shares)
	if lvl, err := b.levelFor(o); err != nil {
		metrics.UnknownLevelsTotal.Inc()
		b.log.Warn().Err(err).Msg("execution level lookup failed")
	} else {
		lvl.reduceVolume(eff)
	}
	o.Shares -= eff
	b.visibleExecs = append(b.visibleExecs, LogEntry{Time: ev.Time, OrderID: o.ID, Price: o.Price, Shares: ev.Shares, Side: o.Side})
	b.log.Debug().
		Uint64("order_id", o.ID).
		Int64("executed", eff).
		Int64("remaining", o.Shares).
		Msg("visible execution")
	if o.Shares == 0 {
		b.remove(ev)
	}
}

func (b *Book) executeHidden(ev Event) {
	// Hidden liquidity has no resting representation: record only.
	b.hiddenExecs = append(b.hiddenExecs, LogEntry{Time: ev.Time, Price: ev.Price, Shares: ev.Shares, Side: ev.Side})
	b.log.Debug().Int64("price", ev.Price).Int64("shares", ev.Shares).Msg("hidden execution")
}

func (b *Book) updateNBBO() {
	bids := b.buy.InOrder()
	if len(bids) == 0 {
		b.bestBid = Quote{}
	} else {
		b.bestBid = Quote{Price: bids[len(bids)-1].Price, Ok: true}
	}
	asks := b.sell.InOrder()
	if len(asks) == 0 {
		b.bestOffer = Quote{}
	} else {
		b.bestOffer = Quote{Price: asks[0].Price, Ok: true}
	}
}

// ---------------- Queries ----------------

// NBBO returns the best offer and best bid; either may be absent.
func (b *Book) NBBO() (offer, bid Quote) {
	return b.bestOffer, b.bestBid
}

func (b *Book) levels(t *LimitTree) []LevelInfo {
	nodes := t.InOrder()
	out := make([]LevelInfo, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, LevelInfo{Price: n.Price, TotalVolume: n.TotalVolume, NumOrders: n.NumOrders})
	}
	return out
}

// AllLevels returns every live level per side in ascending price order.
func (b *Book) AllLevels() (bids, asks []LevelInfo) {
	return b.levels(b.buy), b.levels(b.sell)
}

// XLevels returns up to n levels per side nearest the touch, in
// ascending price order on both sides.
func (b *Book) XLevels(n int) (bids, asks []LevelInfo) {
	bids, asks = b.AllLevels()
	if len(bids) > n {
		bids = bids[len(bids)-n:]
	}
	if len(asks) > n {
		asks = asks[:n]
	}
	return bids, asks
}

// OrdersAtLevel returns the queue at price head-to-tail, or nil if no
// such level is live. The buy side shadows the sell side when a crossed
// tape leaves both with the same price.
func (b *Book) OrdersAtLevel(price int64) []QueueEntry {
	if lvl := b.buy.Find(price); lvl != nil && lvl.NumOrders != 0 {
		return lvl.Entries()
	}
	if lvl := b.sell.Find(price); lvl != nil && lvl.NumOrders != 0 {
		return lvl.Entries()
	}
	return nil
}

// QueueAtBest returns the order queues at the touch on each side.
func (b *Book) QueueAtBest() (bid, ask []QueueEntry) {
	if b.bestBid.Ok {
		bid = b.OrdersAtLevel(b.bestBid.Price)
	}
	if b.bestOffer.Ok {
		if lvl := b.sell.Find(b.bestOffer.Price); lvl != nil {
			ask = lvl.Entries()
		}
	}
	return bid, ask
}

func (b *Book) captureQueues(t int64) QueueSnapshot {
	bids, asks := b.XLevels(5)
	qs := QueueSnapshot{Time: t}
	for _, lv := range bids {
		if lvl := b.buy.Find(lv.Price); lvl != nil {
			qs.Bids = append(qs.Bids, lvl.Entries())
		}
	}
	for _, lv := range asks {
		if lvl := b.sell.Find(lv.Price); lvl != nil {
			qs.Asks = append(qs.Asks, lvl.Entries())
		}
	}
	return qs
}

// The log accessors return the book's own backing slices; callers must
// treat them as read-only.

func (b *Book) Submissions() []LogEntry       { return b.submissions }
func (b *Book) Cancellations() []LogEntry     { return b.cancellations }
func (b *Book) Deletions() []LogEntry         { return b.deletions }
func (b *Book) VisibleExecutions() []LogEntry { return b.visibleExecs }
func (b *Book) HiddenExecutions() []LogEntry  { return b.hiddenExecs }
func (b *Book) SnapshotHistory() []Snapshot   { return b.snapshots }
func (b *Book) QueueHistory() []QueueSnapshot { return b.queueHist }

// LiveOrders returns the number of registered resting orders.
func (b *Book) LiveOrders() int { return len(b.orders) }

// Restore re-seats a resting order without recording any tape activity.
// Only snapshot loading uses it, before the journal tail replays.
func (b *Book) Restore(id uint64, side Side, price, shares, entryTime int64) {
	o := &Order{
		ID:        id,
		Price:     price,
		Shares:    shares,
		EntryTime: entryTime,
		Side:      side,
	}
	b.orders[id] = o
	b.treeFor(side).Insert(price).addOrder(o)
	b.updateNBBO()
}

// BidsWalk visits every live bid level in ascending price order.
func (b *Book) BidsWalk(fn func(*Limit)) {
	for _, lvl := range b.buy.InOrder() {
		fn(lvl)
	}
}

// AsksWalk visits every live ask level in ascending price order.
func (b *Book) AsksWalk(fn func(*Limit)) {
	for _, lvl := range b.sell.InOrder() {
		fn(lvl)
	}
}
