package snapshot_test

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-isis/isisd/snapshot"
	"github.com/go-isis/isisd/update"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func TestWriteRecordRoundTrips(t *testing.T) {
	var buf bytes.Buffer

	path := filepath.Join(t.TempDir(), "snap")
	w, err := snapshot.NewWriter(path)
	if err != nil {
		t.Fatal(err)
	}

	rec := &snapshot.LSPRecord{
		SystemId: "0102030405ff",
		Level:    1,
		SeqNo:    7,
		Checksum: 0x1234,
		Lifetime: 900,
		Length:   42,
	}
	if err := w.WriteRecord(rec); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := buf.ReadFrom(f); err != nil {
		t.Fatal(err)
	}

	got, err := snapshot.ReadAll(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].SystemId != rec.SystemId || got[0].SeqNo != rec.SeqNo || got[0].Checksum != rec.Checksum {
		t.Errorf("round-tripped record mismatch: got %+v, want %+v", got[0], rec)
	}
}

func TestReadAllOnEmptyFileReturnsNoRecords(t *testing.T) {
	recs, err := snapshot.ReadAll(bytes.NewReader(nil))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records, got %d", len(recs))
	}
}

func TestRunPeriodicStopsCleanly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "periodic")
	stop := make(chan struct{})
	var processes [2]*update.Process
	errs := snapshot.RunPeriodic(path, processes, time.Hour, stop)
	close(stop)
	select {
	case <-errs:
	case <-time.After(100 * time.Millisecond):
	}
}
