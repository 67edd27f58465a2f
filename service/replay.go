package service

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"tapebook/domain/book"
	"tapebook/infra/sequence"
	"tapebook/infra/wal"
	"tapebook/snapshot"
)

// Recover rebuilds the book from disk: seed from the snapshot if one
// exists, then apply the journal tail on top. The sequencer resumes
// from the highest seq seen so new events never collide with replayed
// ones.
func Recover(walDir, snapDir string, b *book.Book, seqGen *sequence.Sequencer, log zerolog.Logger) error {
	snapSeq, err := snapshot.Load(filepath.Join(snapDir, "snapshot.bin"), b)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snapSeq > 0 {
		log.Info().Uint64("seq", snapSeq).Int("orders", b.LiveOrders()).Msg("snapshot restored")
	}

	lastSeq, err := wal.Replay(walDir, func(rec *wal.Record) error {
		if rec.Seq <= snapSeq {
			return nil // already in the snapshot
		}
		var ev book.Event
		if err := ev.UnmarshalBinary(rec.Data); err != nil {
			return fmt.Errorf("seq %d: %w", rec.Seq, err)
		}
		b.HandleEvent(ev)
		return nil
	})
	if err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}

	if lastSeq < snapSeq {
		lastSeq = snapSeq
	}
	seqGen.Reset(lastSeq)

	log.Info().
		Uint64("last_seq", lastSeq).
		Int("live_orders", b.LiveOrders()).
		Msg("recovery complete")
	return nil
}
