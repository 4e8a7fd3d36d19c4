// Package store owns the durable state of a batch run: the in-memory result
// map loaded from a prior snapshot, the merge rules that decide what a rerun
// keeps, and the snapshot writer that persists the full map in item order.
//
// The store is mutated by exactly one goroutine (the pass orchestrator);
// workers only return values. That single-writer discipline is what lets the
// whole package stay lock-free.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/slopscope/slopscope/internal/domain"
)

// Store maps item ids to their latest known records.
type Store struct {
	records map[int]*domain.Record
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[int]*domain.Record)}
}

// Load reads a snapshot file into a store. A missing file is a normal first
// run and yields an empty store. Lines that do not parse, or that lack an
// integer story_id, are skipped.
func Load(path string) (*Store, error) {
	s := NewStore()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxSnapshotLineBytes)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec domain.Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			continue
		}
		if rec.ID <= 0 {
			continue
		}
		s.records[rec.ID] = &rec
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return s, nil
}

// Get returns the record for id, or nil if none is stored.
func (s *Store) Get(id int) *domain.Record {
	return s.records[id]
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// Merge folds one worker update into the store.
//
// If the stored record's echoed inputs no longer match the item, every prior
// sub-result is discarded before the update is applied: input drift
// invalidates results. Drift limited to the control story discards only the
// control sub-results. Otherwise, non-nil sub-results in the update
// overwrite the stored ones and nil sub-results leave them alone, so a
// partial update never loses a previously completed sibling.
func (s *Store) Merge(item domain.Item, update *domain.Record) {
	if update == nil || update.ID != item.ID {
		return
	}

	existing := s.records[item.ID]
	if existing == nil || !domain.EchoMatches(existing, item) {
		existing = domain.NewPlaceholder(item)
		s.records[item.ID] = existing
	} else if !domain.ControlMatches(existing, item) {
		existing.ControlEval = nil
		existing.ControlDetection = nil
		existing.ControlStory = item.ControlStory
	}

	// Refresh echoes from the current item.
	placeholder := domain.NewPlaceholder(item)
	existing.PromptID = placeholder.PromptID
	existing.Prompt = placeholder.Prompt
	existing.OriginalStory = placeholder.OriginalStory
	existing.UnsloppedStory = placeholder.UnsloppedStory
	existing.ControlStory = placeholder.ControlStory
	if item.Kind == domain.KindSingle {
		existing.Story = item.Story
	}

	if update.OriginalEval != nil {
		existing.OriginalEval = update.OriginalEval
	}
	if update.UnsloppedEval != nil {
		existing.UnsloppedEval = update.UnsloppedEval
	}
	if update.StoryEval != nil {
		existing.StoryEval = update.StoryEval
	}
	if update.ControlEval != nil {
		existing.ControlEval = update.ControlEval
	}
	if update.OriginalDetection != nil {
		existing.OriginalDetection = update.OriginalDetection
	}
	if update.UnsloppedDetection != nil {
		existing.UnsloppedDetection = update.UnsloppedDetection
	}
	if update.StoryDetection != nil {
		existing.StoryDetection = update.StoryDetection
	}
	if update.ControlDetection != nil {
		existing.ControlDetection = update.ControlDetection
	}

	if item.Kind == domain.KindPrompt {
		if update.Story != "" {
			existing.Story = update.Story
			existing.StoryError = ""
		} else if update.StoryError != "" {
			existing.StoryError = update.StoryError
		}
	}
}

// CompletionPredicate decides whether an item still needs processing.
// A nil record is never complete.
type CompletionPredicate func(rec *domain.Record, item domain.Item) bool

// JudgeComplete is satisfied once every required evaluation for the item's
// kind has a full set of scores. Error-shaped evaluations do not count.
func JudgeComplete(rec *domain.Record, item domain.Item) bool {
	if !domain.EchoMatches(rec, item) {
		return false
	}
	if item.ControlStory != "" &&
		(!domain.ControlMatches(rec, item) || !rec.ControlEval.Complete()) {
		return false
	}
	switch item.Kind {
	case domain.KindPair:
		return rec.OriginalEval.Complete() && rec.UnsloppedEval.Complete()
	case domain.KindSingle:
		return rec.StoryEval.Complete()
	}
	return false
}

// DetectComplete is satisfied once every required detection carries a
// fraction_ai value.
func DetectComplete(rec *domain.Record, item domain.Item) bool {
	if !domain.EchoMatches(rec, item) {
		return false
	}
	if item.ControlStory != "" &&
		(!domain.ControlMatches(rec, item) || !rec.ControlDetection.Complete()) {
		return false
	}
	switch item.Kind {
	case domain.KindPair:
		return rec.OriginalDetection.Complete() && rec.UnsloppedDetection.Complete()
	case domain.KindSingle:
		return rec.StoryDetection.Complete()
	}
	return false
}

// GenerateComplete is satisfied once a prompt item has a non-empty story for
// its current prompt text.
func GenerateComplete(rec *domain.Record, item domain.Item) bool {
	return domain.EchoMatches(rec, item) && rec.Story != "" && rec.StoryError == ""
}
