package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// ExportLine is one line of a JSONL export. Exactly one of Run, Event or
// Transaction is set, named by Record.
type ExportLine struct {
	Record      string             `json:"record"`
	Run         *RunRecord         `json:"run,omitempty"`
	Event       *EventRecord       `json:"event,omitempty"`
	Transaction *TransactionRecord `json:"transaction,omitempty"`
}

// ExportJSONL writes a run as zstd-compressed JSON lines: the run header,
// then each event followed by the transactions it triggered.
func (s *Store) ExportJSONL(ctx context.Context, w io.Writer, runID string) (int, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return 0, err
	}
	events, err := s.ReadEvents(ctx, runID)
	if err != nil {
		return 0, err
	}
	txs, err := s.ReadTransactions(ctx, runID)
	if err != nil {
		return 0, err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	n := 0
	write := func(line ExportLine) error {
		b, err := json.Marshal(line)
		if err != nil {
			return err
		}
		if _, err := bw.Write(b); err != nil {
			return err
		}
		n++
		return bw.WriteByte('\n')
	}

	if err := write(ExportLine{Record: "run", Run: &run}); err != nil {
		enc.Close()
		return n, fmt.Errorf("export: %w", err)
	}

	ti := 0
	for i := range events {
		if err := write(ExportLine{Record: "event", Event: &events[i]}); err != nil {
			enc.Close()
			return n, fmt.Errorf("export: %w", err)
		}
		for ti < len(txs) && txs[ti].Seq == events[i].Seq {
			if err := write(ExportLine{Record: "transaction", Transaction: &txs[ti]}); err != nil {
				enc.Close()
				return n, fmt.Errorf("export: %w", err)
			}
			ti++
		}
	}

	if err := bw.Flush(); err != nil {
		enc.Close()
		return n, fmt.Errorf("export: %w", err)
	}
	if err := enc.Close(); err != nil {
		return n, fmt.Errorf("export: %w", err)
	}
	return n, nil
}

// ReadExport decodes a stream written by ExportJSONL.
func ReadExport(r io.Reader) ([]ExportLine, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var lines []ExportLine
	for sc.Scan() {
		var line ExportLine
		if err := json.Unmarshal(sc.Bytes(), &line); err != nil {
			return nil, fmt.Errorf("read export line %d: %w", len(lines)+1, err)
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return lines, nil
}
