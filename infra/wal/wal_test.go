package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestAppendAndReplay(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}

	const n = 100
	for i := 1; i <= n; i++ {
		rec := NewRecord(1, uint64(i), []byte(fmt.Sprintf("event-%d", i)))
		if err := w.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
		if i%20 == 0 {
			_ = w.Sync()
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	count := 0
	lastSeq, err := Replay(dir, func(rec *Record) error {
		count++
		if rec.Type != 1 {
			t.Fatalf("unexpected record type %d", rec.Type)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if count != n {
		t.Fatalf("expected %d records, got %d", n, count)
	}
	if lastSeq != n {
		t.Fatalf("expected last seq %d, got %d", n, lastSeq)
	}
}

func TestReopenResumesSegment(t *testing.T) {
	dir := t.TempDir()

	w, _ := Open(Config{Dir: dir})
	_ = w.Append(NewRecord(1, 1, []byte("a")))
	_ = w.Close()

	w, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = w.Append(NewRecord(1, 2, []byte("b")))
	_ = w.Close()

	count := 0
	if _, err := Replay(dir, func(*Record) error { count++; return nil }); err != nil {
		t.Fatalf("replay: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 records across reopen, got %d", count)
	}
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	for i := 1; i <= 10; i++ {
		if err := w.Append(NewRecord(1, uint64(i), []byte("rotate-me-please"))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	_ = w.Close()

	files, _ := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if len(files) < 2 {
		t.Fatalf("expected rotated segments, found %d", len(files))
	}

	count := 0
	if _, err := Replay(dir, func(*Record) error { count++; return nil }); err != nil {
		t.Fatalf("replay across segments: %v", err)
	}
	if count != 10 {
		t.Fatalf("expected 10 records, got %d", count)
	}
}

func TestReopenAfterTruncationResumesNewestSegment(t *testing.T) {
	dir := t.TempDir()

	// tiny segments: every record rotates, one record per segment
	w, err := Open(Config{Dir: dir, SegmentSize: 32})
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	for i := 1; i <= 6; i++ {
		if err := w.Append(NewRecord(1, uint64(i), []byte("truncate-and-rotate"))); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := w.TruncateBefore(3); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	_ = w.Close()

	// the surviving segment indices no longer start at zero; reopen must
	// resume the newest one, not the file count
	w, err = Open(Config{Dir: dir, SegmentSize: 32})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := w.Append(NewRecord(1, 7, []byte("post-restart"))); err != nil {
		t.Fatalf("append after reopen: %v", err)
	}
	_ = w.Close()

	var seqs []uint64
	if _, err := Replay(dir, func(rec *Record) error {
		seqs = append(seqs, rec.Seq)
		return nil
	}); err != nil {
		t.Fatalf("replay after truncation: %v", err)
	}
	want := []uint64{4, 5, 6, 7}
	if len(seqs) != len(want) {
		t.Fatalf("replayed seqs = %v, want %v", seqs, want)
	}
	for i := range want {
		if seqs[i] != want[i] {
			t.Fatalf("replayed seqs = %v, want %v", seqs, want)
		}
	}
}

func TestCRCIntegrity(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	_ = w.Append(NewRecord(1, 1, []byte("valid-record")))
	_ = w.Sync()
	_ = w.Close()

	path := filepath.Join(dir, "segment-000000.wal")
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatal(err)
	}
	// corrupt the seq field so the frame CRC no longer matches
	_, _ = f.WriteAt([]byte{0xFF, 0xFF, 0xFF, 0xFF}, 4)
	_ = f.Close()

	_, err = Replay(dir, func(*Record) error { return nil })
	if err == nil || err.Error() != "wal: crc mismatch" {
		t.Fatalf("expected crc mismatch, got %v", err)
	}
}
