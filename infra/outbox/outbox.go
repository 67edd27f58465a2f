// Package outbox stages execution prints durably until the broadcaster
// has pushed them to Kafka and seen an ack. Prints survive restarts;
// the broadcaster drains anything not yet acked.
package outbox

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Print --------------------

// Print is one staged execution record, keyed by the event seq that
// produced it. Payload is the wire form handed to Kafka verbatim.
type Print struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// binary encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodePrint(p *Print) []byte {
	buf := make([]byte, 1+4+8+len(p.Payload))
	buf[0] = byte(p.State)
	binary.BigEndian.PutUint32(buf[1:5], p.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(p.LastAttempt))
	copy(buf[13:], p.Payload)
	return buf
}

func decodePrint(seq uint64, b []byte) (*Print, error) {
	if len(b) < 13 {
		return nil, errors.New("outbox: record too short")
	}
	return &Print{
		Seq:         seq,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     append([]byte(nil), b[13:]...),
	}, nil
}

// -------------------- Outbox --------------------

type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false, // prints must survive a crash
	})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// -------------------- API --------------------

// PutNew stages a print for broadcast.
func (o *Outbox) PutNew(seq uint64, payload []byte) error {
	p := &Print{Seq: seq, State: StateNew, Payload: payload}
	return o.db.Set(keyFor(seq), encodePrint(p), pebble.Sync)
}

// Get returns the staged print for seq.
func (o *Outbox) Get(seq uint64) (*Print, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return decodePrint(seq, val)
}

func (o *Outbox) MarkSent(seq uint64) error   { return o.transition(seq, StateSent) }
func (o *Outbox) MarkAcked(seq uint64) error  { return o.transition(seq, StateAcked) }
func (o *Outbox) MarkFailed(seq uint64) error { return o.transition(seq, StateFailed) }

func (o *Outbox) transition(seq uint64, to State) error {
	p, err := o.Get(seq)
	if err != nil {
		return err
	}
	p.State = to
	p.LastAttempt = time.Now().UnixNano()
	if to == StateFailed {
		p.Retries++
	}
	return o.db.Set(keyFor(seq), encodePrint(p), pebble.Sync)
}

// Delete removes an acked print (cleanup).
func (o *Outbox) Delete(seq uint64) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

// -------------------- Scan --------------------

// ScanPending iterates every print still awaiting a broker ack
// (NEW, FAILED, and SENT-but-never-acked after a crash).
func (o *Outbox) ScanPending(fn func(*Print) error) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte("print/"),
		UpperBound: []byte("print/~"),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		p, err := decodePrint(seq, iter.Value())
		if err != nil {
			return err
		}
		if p.State == StateAcked {
			continue
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return iter.Error()
}

// -------------------- Helpers --------------------

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("print/%020d", seq))
}

func parseKey(b []byte) (uint64, error) {
	var seq uint64
	_, err := fmt.Sscanf(string(bytes.TrimPrefix(b, []byte("print/"))), "%d", &seq)
	return seq, err
}
