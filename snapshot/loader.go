package snapshot

import (
	"encoding/gob"
	"errors"
	"io/fs"
	"os"

	"tapebook/domain/book"
)

// Load seeds a fresh book from the snapshot at path and returns the seq
// it was taken at. A missing snapshot is not an error: the journal
// replays from the beginning. Any other open failure is: silently
// skipping an unreadable snapshot would hide real state.
func Load(path string, b *book.Book) (uint64, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil // snapshot optional
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return 0, err
	}

	for _, e := range s.Orders {
		b.Restore(e.ID, book.Side(e.Side), e.Price, e.Shares, e.EntryTime)
	}

	return s.Seq, nil
}
