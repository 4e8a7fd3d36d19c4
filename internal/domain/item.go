// Package domain defines the core value types for batch story evaluation:
// input items, persisted records, and the sub-result payloads produced by
// the judge, detector, and generator workers.
package domain

// ItemKind identifies which input fields an Item carries and therefore
// which sub-results a run can produce for it.
type ItemKind string

const (
	// KindPair is an original/unslopped story pair.
	KindPair ItemKind = "pair"

	// KindSingle is a standalone story, optionally echoing its prompt.
	KindSingle ItemKind = "single"

	// KindPrompt is a writing prompt whose story has yet to be generated.
	KindPrompt ItemKind = "prompt"
)

// Item is one unit of work. The ID is the 1-based line position in the
// source file and is stable across runs; everything else is immutable
// input, loaded once and never modified.
type Item struct {
	ID   int
	Kind ItemKind

	// KindPrompt and KindSingle inputs.
	PromptID *int
	Prompt   string

	// KindSingle input.
	Story string

	// KindPair inputs.
	OriginalStory  string
	UnsloppedStory string

	// Optional control variant, attached from a separate control file.
	ControlStory string
}
