package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/slopscope/slopscope/internal/domain"
)

// maxSnapshotLineBytes bounds one snapshot line; records embed full stories
// and raw detection responses.
const maxSnapshotLineBytes = 16 * 1024 * 1024

// WriteSnapshot rewrites the snapshot file: exactly one line per item, in
// item order, using the stored record or a placeholder echoing the item's
// inputs. Iterating the item slice rather than the store map is what makes
// the output deterministic.
//
// The file is truncated and rewritten in place. There is exactly one writer
// in the process and downstream readers consume finished snapshots, so no
// rename dance is needed.
func WriteSnapshot(path string, items []domain.Item, s *Store) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, item := range items {
		rec := s.Get(item.ID)
		if rec == nil {
			rec = domain.NewPlaceholder(item)
		}
		if err := enc.Encode(rec); err != nil {
			f.Close()
			return fmt.Errorf("encode record %d: %w", item.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return nil
}

// ReadAll returns every parseable record from a snapshot file in file
// order. It is the read path for aggregation commands that never mutate.
func ReadAll(path string) ([]*domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var records []*domain.Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxSnapshotLineBytes)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec domain.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, &rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return records, nil
}
