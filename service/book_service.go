package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tapebook/domain/book"
	"tapebook/infra/kafka"
	"tapebook/infra/metrics"
	"tapebook/infra/outbox"
	"tapebook/infra/sequence"
	"tapebook/infra/wal"
	"tapebook/snapshot"
)

// DepthUpdate is the per-event view pushed to the live stream and the
// WebSocket feed. Prices are in ticks; rendering is the feed's concern.
type DepthUpdate struct {
	Seq       uint64           `json:"seq"`
	Time      int64            `json:"time"`
	BestBid   *int64           `json:"best_bid"`
	BestOffer *int64           `json:"best_offer"`
	Bids      []book.LevelInfo `json:"bids"`
	Asks      []book.LevelInfo `json:"asks"`
}

// ExecutionPrint is the wire form staged in the outbox and broadcast to
// Kafka. OrderID is zero for hidden executions.
type ExecutionPrint struct {
	Seq     uint64 `json:"seq"`
	Time    int64  `json:"time"`
	OrderID uint64 `json:"order_id,omitempty"`
	Price   int64  `json:"price"`
	Shares  int64  `json:"shares"`
	Side    int8   `json:"side"`
	Hidden  bool   `json:"hidden"`
}

// Notifier receives a depth update after every applied event.
type Notifier interface {
	Notify(DepthUpdate)
}

// BookService is the only write entry point into the system.
type BookService struct {
	mu sync.Mutex

	book    *book.Book
	journal *wal.WAL
	prints  *outbox.Outbox
	seq     *sequence.Sequencer

	depth    *kafka.Producer // nil disables the live stream
	notifier Notifier        // nil disables feed notifications

	depthLevels int
	log         zerolog.Logger
}

func New(
	b *book.Book,
	journal *wal.WAL,
	prints *outbox.Outbox,
	seq *sequence.Sequencer,
	depth *kafka.Producer,
	depthLevels int,
	log zerolog.Logger,
) *BookService {
	if depthLevels <= 0 {
		depthLevels = 5
	}
	return &BookService{
		book:        b,
		journal:     journal,
		prints:      prints,
		seq:         seq,
		depth:       depth,
		depthLevels: depthLevels,
		log:         log.With().Str("component", "service").Logger(),
	}
}

// SetNotifier attaches the feed hub. Must be called before Apply.
func (s *BookService) SetNotifier(n Notifier) { s.notifier = n }

// Apply runs one tape event through the full path. The journal append
// comes first: an event that is not durable is not applied.
func (s *BookService) Apply(ctx context.Context, ev book.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	seq := s.seq.Next()

	payload, err := ev.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if s.journal != nil {
		rec := &wal.Record{Type: uint8(ev.Type), Seq: seq, Time: ev.Time, Data: payload}
		if err := s.journal.Append(rec); err != nil {
			return fmt.Errorf("journal append: %w", err)
		}
	}

	visibleBefore := len(s.book.VisibleExecutions())
	hiddenBefore := len(s.book.HiddenExecutions())

	s.book.HandleEvent(ev)

	metrics.EventsTotal.WithLabelValues(ev.Type.String()).Inc()
	metrics.ApplyLatency.Observe(float64(time.Since(start).Microseconds()))
	s.observeBook()

	s.stagePrints(seq, visibleBefore, hiddenBefore)
	s.publishDepth(ctx, seq, ev.Time)
	return nil
}

// stagePrints puts any execution the book just recorded into the
// durable outbox. The book's own logs are the source of truth, so a
// dropped event (unknown id) stages nothing.
func (s *BookService) stagePrints(seq uint64, visibleBefore, hiddenBefore int) {
	if s.prints == nil {
		return
	}
	for _, e := range s.book.VisibleExecutions()[visibleBefore:] {
		metrics.VisibleExecutionsTotal.Inc()
		s.stage(seq, ExecutionPrint{
			Seq: seq, Time: e.Time, OrderID: e.OrderID,
			Price: e.Price, Shares: e.Shares, Side: int8(e.Side),
		})
	}
	for _, e := range s.book.HiddenExecutions()[hiddenBefore:] {
		metrics.HiddenExecutionsTotal.Inc()
		s.stage(seq, ExecutionPrint{
			Seq: seq, Time: e.Time,
			Price: e.Price, Shares: e.Shares, Side: int8(e.Side), Hidden: true,
		})
	}
}

func (s *BookService) stage(seq uint64, p ExecutionPrint) {
	payload, err := json.Marshal(p)
	if err != nil {
		s.log.Error().Err(err).Msg("encode execution print")
		return
	}
	if err := s.prints.PutNew(seq, payload); err != nil {
		s.log.Error().Err(err).Uint64("seq", seq).Msg("stage execution print")
	}
}

func (s *BookService) publishDepth(ctx context.Context, seq uint64, t int64) {
	if s.depth == nil && s.notifier == nil {
		return
	}
	update := s.depthUpdate(seq, t)
	if s.notifier != nil {
		s.notifier.Notify(update)
	}
	if s.depth != nil {
		payload, err := json.Marshal(update)
		if err != nil {
			s.log.Error().Err(err).Msg("encode depth update")
			return
		}
		// best effort: the live stream may lose updates, the feed and
		// the queries never do
		if err := s.depth.Send(ctx, []byte(fmt.Sprintf("%d", seq)), payload); err != nil {
			s.log.Warn().Err(err).Msg("depth publish failed")
		}
	}
}

func (s *BookService) depthUpdate(seq uint64, t int64) DepthUpdate {
	bids, asks := s.book.XLevels(s.depthLevels)
	offer, bid := s.book.NBBO()
	u := DepthUpdate{Seq: seq, Time: t, Bids: bids, Asks: asks}
	if bid.Ok {
		p := bid.Price
		u.BestBid = &p
	}
	if offer.Ok {
		p := offer.Price
		u.BestOffer = &p
	}
	return u
}

func (s *BookService) observeBook() {
	offer, bid := s.book.NBBO()
	if bid.Ok {
		metrics.BestBid.Set(float64(bid.Price))
	} else {
		metrics.BestBid.Set(0)
	}
	if offer.Ok {
		metrics.BestOffer.Set(float64(offer.Price))
	} else {
		metrics.BestOffer.Set(0)
	}
	metrics.LiveOrders.Set(float64(s.book.LiveOrders()))
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (s *BookService) NBBO() (offer, bid book.Quote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.NBBO()
}

func (s *BookService) Levels(n int) (bids, asks []book.LevelInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.XLevels(n)
}

func (s *BookService) AllLevels() (bids, asks []book.LevelInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.AllLevels()
}

func (s *BookService) OrdersAtLevel(price int64) []book.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.OrdersAtLevel(price)
}

func (s *BookService) QueueAtBest() (bid, ask []book.QueueEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.QueueAtBest()
}

func (s *BookService) Submissions() []book.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Submissions()
}

func (s *BookService) Cancellations() []book.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Cancellations()
}

func (s *BookService) Deletions() []book.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.Deletions()
}

func (s *BookService) VisibleExecutions() []book.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.VisibleExecutions()
}

func (s *BookService) HiddenExecutions() []book.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.HiddenExecutions()
}

func (s *BookService) SnapshotHistory() []book.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.SnapshotHistory()
}

func (s *BookService) QueueHistory() []book.QueueSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book.QueueHistory()
}

// WriteSnapshot persists the current resting state and returns the seq
// it covers.
func (s *BookService) WriteSnapshot(w *snapshot.Writer) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.seq.Current()
	if err := w.Write(seq, s.book); err != nil {
		return 0, err
	}
	return seq, nil
}
