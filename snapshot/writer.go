package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"tapebook/domain/book"
)

type Writer struct {
	Dir string
}

// Write persists the book's resting orders under seq. The write goes to
// a temp file first so a crash never leaves a torn snapshot behind.
func (w *Writer) Write(seq uint64, b *book.Book) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	s := Snapshot{
		Seq:     seq,
		Created: time.Now(),
		Orders:  make([]OrderEntry, 0, 1024),
	}

	collect := func(lvl *book.Limit) {
		for o := lvl.Head(); o != nil; o = o.Next() {
			s.Orders = append(s.Orders, OrderEntry{
				ID:        o.ID,
				Side:      int8(o.Side),
				Price:     o.Price,
				Shares:    o.Shares,
				EntryTime: o.EntryTime,
			})
		}
	}
	b.BidsWalk(collect)
	b.AsksWalk(collect)

	tmp := filepath.Join(w.Dir, "snapshot.bin.tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(w.Dir, "snapshot.bin"))
}
