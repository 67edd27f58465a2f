// Package feed is the read surface: JSON queries over HTTP plus a
// WebSocket stream of per-event depth updates.
package feed

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tapebook/domain/book"
	"tapebook/infra/metrics"
	"tapebook/service"
)

// Prices on the tape are integer ticks of 1/10000 currency unit; the
// API renders both forms.
const tickExponent = -4

type Server struct {
	svc *service.BookService
	hub *Hub
	log zerolog.Logger
}

func NewServer(svc *service.BookService, hub *Hub, log zerolog.Logger) *Server {
	return &Server{
		svc: svc,
		hub: hub,
		log: log.With().Str("component", "api").Logger(),
	}
}

// Handler wires every route onto a fresh mux.
func (s *Server) Handler(reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /nbbo", s.handleNBBO)
	mux.HandleFunc("GET /levels", s.handleLevels)
	mux.HandleFunc("GET /book", s.handleBook)
	mux.HandleFunc("GET /orders", s.handleOrders)
	mux.HandleFunc("GET /queue", s.handleQueue)
	mux.HandleFunc("GET /executions", s.handleExecutions)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler(reg))
	if s.hub != nil {
		mux.Handle("GET /ws", s.hub)
	}
	return mux
}

// -------------------- wire types --------------------

type quoteJSON struct {
	Ticks int64  `json:"ticks"`
	Price string `json:"price"`
}

type levelJSON struct {
	Ticks       int64  `json:"ticks"`
	Price       string `json:"price"`
	TotalVolume int64  `json:"total_volume"`
	NumOrders   int    `json:"num_orders"`
}

type orderJSON struct {
	ID     uint64 `json:"id"`
	Shares int64  `json:"shares"`
}

func renderPrice(ticks int64) string {
	return decimal.New(ticks, tickExponent).StringFixed(4)
}

func quoteOrNil(q book.Quote) *quoteJSON {
	if !q.Ok {
		return nil
	}
	return &quoteJSON{Ticks: q.Price, Price: renderPrice(q.Price)}
}

func levelsJSON(in []book.LevelInfo) []levelJSON {
	out := make([]levelJSON, 0, len(in))
	for _, lv := range in {
		out = append(out, levelJSON{
			Ticks:       lv.Price,
			Price:       renderPrice(lv.Price),
			TotalVolume: lv.TotalVolume,
			NumOrders:   lv.NumOrders,
		})
	}
	return out
}

func ordersJSON(in []book.QueueEntry) []orderJSON {
	out := make([]orderJSON, 0, len(in))
	for _, e := range in {
		out = append(out, orderJSON{ID: e.ID, Shares: e.Shares})
	}
	return out
}

// -------------------- handlers --------------------

func (s *Server) handleNBBO(w http.ResponseWriter, _ *http.Request) {
	offer, bid := s.svc.NBBO()
	s.writeJSON(w, map[string]any{
		"bid": quoteOrNil(bid),
		"ask": quoteOrNil(offer),
	})
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	n := 5
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	bids, asks := s.svc.Levels(n)
	s.writeJSON(w, map[string]any{
		"bids": levelsJSON(bids),
		"asks": levelsJSON(asks),
	})
}

func (s *Server) handleBook(w http.ResponseWriter, _ *http.Request) {
	bids, asks := s.svc.AllLevels()
	s.writeJSON(w, map[string]any{
		"bids": levelsJSON(bids),
		"asks": levelsJSON(asks),
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query().Get("price")
	ticks, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		http.Error(w, "price must be integer ticks", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, map[string]any{
		"price":  renderPrice(ticks),
		"orders": ordersJSON(s.svc.OrdersAtLevel(ticks)),
	})
}

func (s *Server) handleQueue(w http.ResponseWriter, _ *http.Request) {
	bid, ask := s.svc.QueueAtBest()
	s.writeJSON(w, map[string]any{
		"bid": ordersJSON(bid),
		"ask": ordersJSON(ask),
	})
}

type executionJSON struct {
	Time    int64  `json:"time"`
	OrderID uint64 `json:"order_id,omitempty"`
	Ticks   int64  `json:"ticks"`
	Price   string `json:"price"`
	Shares  int64  `json:"shares"`
	Side    string `json:"side"`
	Hidden  bool   `json:"hidden,omitempty"`
}

func (s *Server) handleExecutions(w http.ResponseWriter, _ *http.Request) {
	visible := s.svc.VisibleExecutions()
	hidden := s.svc.HiddenExecutions()

	out := make([]executionJSON, 0, len(visible)+len(hidden))
	for _, e := range visible {
		out = append(out, executionJSON{
			Time: e.Time, OrderID: e.OrderID,
			Ticks: e.Price, Price: renderPrice(e.Price),
			Shares: e.Shares, Side: e.Side.String(),
		})
	}
	for _, e := range hidden {
		out = append(out, executionJSON{
			Time:  e.Time,
			Ticks: e.Price, Price: renderPrice(e.Price),
			Shares: e.Shares, Side: e.Side.String(), Hidden: true,
		})
	}
	s.writeJSON(w, map[string]any{"executions": out})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug().Err(err).Msg("response write failed")
	}
}
