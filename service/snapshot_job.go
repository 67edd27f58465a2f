package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tapebook/infra/wal"
	"tapebook/snapshot"
)

// SnapshotJob periodically persists the book and truncates journal
// segments the snapshot has made redundant.
type SnapshotJob struct {
	svc      *BookService
	writer   *snapshot.Writer
	journal  *wal.WAL
	interval time.Duration
	log      zerolog.Logger
}

func NewSnapshotJob(svc *BookService, writer *snapshot.Writer, journal *wal.WAL, interval time.Duration, log zerolog.Logger) *SnapshotJob {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SnapshotJob{
		svc:      svc,
		writer:   writer,
		journal:  journal,
		interval: interval,
		log:      log.With().Str("component", "snapshot_job").Logger(),
	}
}

// Run blocks until ctx is cancelled, taking one final snapshot on the
// way out.
func (j *SnapshotJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.take()
			return
		case <-ticker.C:
			j.take()
		}
	}
}

func (j *SnapshotJob) take() {
	seq, err := j.svc.WriteSnapshot(j.writer)
	if err != nil {
		j.log.Error().Err(err).Msg("snapshot write failed")
		return
	}
	if j.journal != nil {
		if err := j.journal.TruncateBefore(seq); err != nil {
			j.log.Warn().Err(err).Msg("journal truncate failed")
		}
	}
	j.log.Info().Uint64("seq", seq).Msg("snapshot written")
}
