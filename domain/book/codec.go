package book

import (
	"encoding/binary"
	"fmt"
)

// Fixed binary layout of one tape event:
// [time:8][type:1][order_id:8][shares:8][price:8][side:1]
const eventWireSize = 8 + 1 + 8 + 8 + 8 + 1

// MarshalBinary encodes the event in its fixed wire layout.
func (e Event) MarshalBinary() ([]byte, error) {
	buf := make([]byte, eventWireSize)
	binary.BigEndian.PutUint64(buf[0:8], uint64(e.Time))
	buf[8] = byte(e.Type)
	binary.BigEndian.PutUint64(buf[9:17], e.OrderID)
	binary.BigEndian.PutUint64(buf[17:25], uint64(e.Shares))
	binary.BigEndian.PutUint64(buf[25:33], uint64(e.Price))
	buf[33] = byte(e.Side)
	return buf, nil
}

// UnmarshalBinary decodes an event from its fixed wire layout.
func (e *Event) UnmarshalBinary(b []byte) error {
	if len(b) != eventWireSize {
		return fmt.Errorf("event payload: want %d bytes, got %d", eventWireSize, len(b))
	}
	e.Time = int64(binary.BigEndian.Uint64(b[0:8]))
	e.Type = EventType(b[8])
	e.OrderID = binary.BigEndian.Uint64(b[9:17])
	e.Shares = int64(binary.BigEndian.Uint64(b[17:25]))
	e.Price = int64(binary.BigEndian.Uint64(b[25:33]))
	e.Side = Side(b[33])
	return nil
}
