// Package snapshot periodically serializes the link-state database to a
// local file for offline inspection, independent of the wire protocol. It
// writes length-prefixed protobuf records, the same framing saver.go uses
// for tcpinfo archive files.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/go-isis/isisd/update"
)

// Writer appends length-prefixed LSPRecords to an underlying file.
type Writer struct {
	f *os.File
	w *bufio.Writer
}

// NewWriter creates (or truncates) path and returns a Writer over it.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f)}, nil
}

// WriteRecord marshals rec to wire format and appends it prefixed with its
// varint-encoded length, mirroring saver.runMarshaller's framing.
func (w *Writer) WriteRecord(rec *LSPRecord) error {
	wire, err := proto.Marshal(rec)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	var size [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(size[:], uint64(len(wire)))
	if _, err := w.w.Write(size[:n]); err != nil {
		return err
	}
	_, err = w.w.Write(wire)
	return err
}

// Close flushes buffered output and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// recordsFromProcess builds one LSPRecord per LSDB entry in process, at the
// given timestamp.
func recordsFromProcess(process *update.Process, level int, at time.Time) []*LSPRecord {
	entries := process.CSNPEntries()
	out := make([]*LSPRecord, 0, len(entries))
	for _, e := range entries {
		length := 0
		if seg, ok := process.Get(e.LSPID); ok {
			length = len(seg.PDU())
		}
		out = append(out, &LSPRecord{
			SystemId:   fmt.Sprintf("%x", e.LSPID.SystemID()),
			Pseudonode: uint32(e.LSPID.PseudonodeID()),
			SegNum:     uint32(e.LSPID.Segment()),
			Level:      uint32(level + 1),
			SeqNo:      e.SeqNo,
			Checksum:   uint32(e.Checksum),
			Lifetime:   uint32(e.Lifetime),
			Length:     uint32(length),
			Timestamp:  at.Unix(),
		})
	}
	return out
}

// Dump writes one LSPRecord per entry of every non-nil process's LSDB to w,
// timestamped at.
func Dump(w *Writer, processes [2]*update.Process, at time.Time) error {
	for lindex, p := range processes {
		if p == nil {
			continue
		}
		for _, rec := range recordsFromProcess(p, lindex, at) {
			if err := w.WriteRecord(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunPeriodic writes a fresh snapshot to path every interval until stop is
// closed. Errors are returned on the channel so the caller can log them;
// RunPeriodic itself never exits on a write error, only when stop closes.
func RunPeriodic(path string, processes [2]*update.Process, interval time.Duration, stop <-chan struct{}) <-chan error {
	errs := make(chan error, 1)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				w, err := NewWriter(path)
				if err != nil {
					errs <- err
					continue
				}
				if err := Dump(w, processes, now); err != nil {
					errs <- err
				}
				if err := w.Close(); err != nil {
					errs <- err
				}
			}
		}
	}()
	return errs
}

// ReadAll decodes every length-prefixed LSPRecord in r until EOF, the
// counterpart to Writer.WriteRecord.
func ReadAll(r io.Reader) ([]*LSPRecord, error) {
	br := bufio.NewReader(r)
	var out []*LSPRecord
	for {
		size, err := binary.ReadUvarint(br)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("snapshot: reading length prefix: %w", err)
		}
		wire := make([]byte, size)
		if _, err := io.ReadFull(br, wire); err != nil {
			return out, fmt.Errorf("snapshot: reading record: %w", err)
		}
		rec := &LSPRecord{}
		if err := proto.Unmarshal(wire, rec); err != nil {
			return out, fmt.Errorf("snapshot: unmarshal: %w", err)
		}
		out = append(out, rec)
	}
}
