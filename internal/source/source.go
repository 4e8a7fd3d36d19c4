// Package source loads input collections for batch runs. Ingestion is
// deliberately permissive: blank and unusable lines are skipped, and an
// item's identity is its 1-based line position, so ids stay aligned across
// the story, control, and snapshot files.
package source

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/slopscope/slopscope/internal/domain"
)

// ErrNoItems indicates the source contained nothing usable after filtering.
var ErrNoItems = errors.New("no usable items in source")

// maxLineBytes bounds a single JSONL line; raw detection responses and
// full-length stories routinely exceed bufio's default token size.
const maxLineBytes = 16 * 1024 * 1024

// promptEnumeration strips a leading "12." or "12)" list marker.
var promptEnumeration = regexp.MustCompile(`^\s*\d+[\.\)]\s*`)

func newScanner(f *os.File) *bufio.Scanner {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return sc
}

// LoadStories reads a JSONL story file. A line carrying both
// "original_story" and "unslopped_story" becomes a pair item; otherwise a
// line carrying "story" becomes a single item echoing its prompt fields.
// Lines that parse but lack the required fields are skipped, as are blank
// and unparseable lines. An empty result is an error.
func LoadStories(path string) ([]domain.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stories: %w", err)
	}
	defer f.Close()

	var items []domain.Item
	sc := newScanner(f)
	for line := 0; sc.Scan(); {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var obj struct {
			OriginalStory  *string `json:"original_story"`
			UnsloppedStory *string `json:"unslopped_story"`
			Story          *string `json:"story"`
			PromptID       *int    `json:"prompt_id"`
			Prompt         string  `json:"prompt"`
		}
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			continue
		}

		switch {
		case obj.OriginalStory != nil && obj.UnsloppedStory != nil:
			items = append(items, domain.Item{
				ID:             line,
				Kind:           domain.KindPair,
				OriginalStory:  *obj.OriginalStory,
				UnsloppedStory: *obj.UnsloppedStory,
			})
		case obj.Story != nil:
			items = append(items, domain.Item{
				ID:       line,
				Kind:     domain.KindSingle,
				PromptID: obj.PromptID,
				Prompt:   obj.Prompt,
				Story:    *obj.Story,
			})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stories: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoItems, path)
	}
	return items, nil
}

// LoadPrompts reads a plain-text prompt list, one prompt per line, with
// blank lines and leading list enumeration removed. Each prompt becomes a
// KindPrompt item whose prompt id equals its item id.
func LoadPrompts(path string) ([]domain.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prompts: %w", err)
	}
	defer f.Close()

	var items []domain.Item
	sc := newScanner(f)
	for line := 0; sc.Scan(); {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		text = promptEnumeration.ReplaceAllString(text, "")
		id := line
		items = append(items, domain.Item{
			ID:       id,
			Kind:     domain.KindPrompt,
			PromptID: &id,
			Prompt:   text,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoItems, path)
	}
	return items, nil
}

// LoadControls reads a control-variant file keyed by line position: the
// "unslopped_story" of line N becomes the control story for item N.
func LoadControls(path string) (map[int]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open controls: %w", err)
	}
	defer f.Close()

	controls := make(map[int]string)
	sc := newScanner(f)
	for line := 0; sc.Scan(); {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var obj struct {
			UnsloppedStory *string `json:"unslopped_story"`
		}
		if err := json.Unmarshal([]byte(text), &obj); err != nil {
			continue
		}
		if obj.UnsloppedStory == nil {
			continue
		}
		controls[line] = *obj.UnsloppedStory
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read controls: %w", err)
	}
	if len(controls) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoItems, path)
	}
	return controls, nil
}

// ApplyControls attaches control stories to the items whose ids appear in
// the control map. Items without a control entry are left unchanged.
func ApplyControls(items []domain.Item, controls map[int]string) {
	for i := range items {
		if story, ok := controls[items[i].ID]; ok {
			items[i].ControlStory = story
		}
	}
}
