package wal

import "time"

// Record is one framed journal entry. Type mirrors the tape event type
// of the payload; Seq is assigned by the caller and must be strictly
// monotonic within a journal directory.
type Record struct {
	Type uint8
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t uint8, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}
