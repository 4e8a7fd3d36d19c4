package domain

import "encoding/json"

// Scores holds the three judge dimensions. Keys are always serialized so a
// missing score is visible as an explicit null in the snapshot, which is
// what downstream readers test for.
type Scores struct {
	Coherence *float64 `json:"coherence"`
	Style     *float64 `json:"style"`
	General   *float64 `json:"general"`
}

// Complete reports whether every dimension was extracted.
func (s *Scores) Complete() bool {
	return s != nil && s.Coherence != nil && s.Style != nil && s.General != nil
}

// Evaluation is one judge sub-result: either a parsed response or an error.
// An error-shaped Evaluation serializes as {"error": "..."} only.
type Evaluation struct {
	RawResponse string   `json:"raw_response,omitempty"`
	Analysis    string   `json:"analysis,omitempty"`
	Scores      *Scores  `json:"scores,omitempty"`
	MissingTags []string `json:"missing_tags,omitempty"`
	Err         string   `json:"error,omitempty"`
}

// Complete reports whether this sub-result needs no further work.
// Errors are not completion; the item stays pending for the next pass.
func (e *Evaluation) Complete() bool {
	return e != nil && e.Err == "" && e.Scores.Complete()
}

// EvaluationError builds an error-shaped Evaluation from a failed call.
func EvaluationError(err error) *Evaluation {
	return &Evaluation{Err: err.Error()}
}

// Detection is one AI-text detection sub-result. The full API response is
// preserved in Raw and serialized verbatim; the typed fields are lifted out
// of it for completion checks and aggregation.
type Detection struct {
	FractionAI      *float64
	PredictionShort string
	Headline        string
	Raw             map[string]any
	Err             string
}

// Complete reports whether the detection carries a usable fraction_ai.
func (d *Detection) Complete() bool {
	return d != nil && d.Err == "" && d.FractionAI != nil
}

// DetectionError builds an error-shaped Detection from a failed call.
func DetectionError(err error) *Detection {
	return &Detection{Err: err.Error()}
}

// DetectionFromRaw lifts the known fields out of a raw detection response.
func DetectionFromRaw(raw map[string]any) *Detection {
	d := &Detection{Raw: raw}
	if v, ok := raw["fraction_ai"].(float64); ok {
		d.FractionAI = &v
	}
	if v, ok := raw["prediction_short"].(string); ok {
		d.PredictionShort = v
	}
	if v, ok := raw["headline"].(string); ok {
		d.Headline = v
	}
	return d
}

// MarshalJSON writes the raw response object for successes so the snapshot
// round-trips the detection API's payload unchanged.
func (d *Detection) MarshalJSON() ([]byte, error) {
	if d.Err != "" {
		return json.Marshal(map[string]string{"error": d.Err})
	}
	if d.Raw != nil {
		return json.Marshal(d.Raw)
	}
	raw := map[string]any{}
	if d.FractionAI != nil {
		raw["fraction_ai"] = *d.FractionAI
	}
	if d.PredictionShort != "" {
		raw["prediction_short"] = d.PredictionShort
	}
	if d.Headline != "" {
		raw["headline"] = d.Headline
	}
	return json.Marshal(raw)
}

// UnmarshalJSON accepts either an error-shaped object or a raw response.
func (d *Detection) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if msg, ok := raw["error"].(string); ok && len(raw) == 1 {
		d.Err = msg
		return nil
	}
	*d = *DetectionFromRaw(raw)
	return nil
}

// Record is the persisted outcome for one Item: the echoed inputs plus
// whatever sub-results have been computed so far. A Record may hold a mix of
// completed and missing sub-results across passes and across commands.
type Record struct {
	ID int `json:"story_id"`

	// Echoed inputs, used to detect drift between runs.
	PromptID       *int   `json:"prompt_id,omitempty"`
	Prompt         string `json:"prompt,omitempty"`
	Story          string `json:"story,omitempty"`
	OriginalStory  string `json:"original_story,omitempty"`
	UnsloppedStory string `json:"unslopped_story,omitempty"`
	ControlStory   string `json:"control_story,omitempty"`

	// Judge sub-results.
	OriginalEval  *Evaluation `json:"original_eval,omitempty"`
	UnsloppedEval *Evaluation `json:"unslopped_eval,omitempty"`
	StoryEval     *Evaluation `json:"story_eval,omitempty"`
	ControlEval   *Evaluation `json:"control_eval,omitempty"`

	// Detection sub-results.
	OriginalDetection  *Detection `json:"original_pangram,omitempty"`
	UnsloppedDetection *Detection `json:"unslopped_pangram,omitempty"`
	StoryDetection     *Detection `json:"story_pangram,omitempty"`
	ControlDetection   *Detection `json:"control_pangram,omitempty"`

	// Generation failure for KindPrompt items; the Story field itself is
	// the success payload there.
	StoryError string `json:"story_error,omitempty"`
}

// NewPlaceholder returns a Record echoing the item's inputs with no
// sub-results, used for snapshot rows of items never yet processed.
func NewPlaceholder(item Item) *Record {
	rec := &Record{ID: item.ID}
	switch item.Kind {
	case KindPair:
		rec.OriginalStory = item.OriginalStory
		rec.UnsloppedStory = item.UnsloppedStory
	case KindSingle:
		rec.PromptID = item.PromptID
		rec.Prompt = item.Prompt
		rec.Story = item.Story
	case KindPrompt:
		rec.PromptID = item.PromptID
		rec.Prompt = item.Prompt
	}
	if item.ControlStory != "" {
		rec.ControlStory = item.ControlStory
	}
	return rec
}

// EchoMatches reports whether the record's echoed inputs match the item's
// current payload. A mismatch means the input drifted since the record was
// written and its sub-results no longer describe the item.
func EchoMatches(rec *Record, item Item) bool {
	if rec == nil {
		return false
	}
	switch item.Kind {
	case KindPair:
		return rec.OriginalStory == item.OriginalStory &&
			rec.UnsloppedStory == item.UnsloppedStory
	case KindSingle:
		return rec.Story == item.Story
	case KindPrompt:
		return rec.Prompt == item.Prompt
	}
	return false
}

// ControlMatches reports whether the record's echoed control story matches
// the item's. Control drift invalidates only the control sub-results.
func ControlMatches(rec *Record, item Item) bool {
	return rec != nil && rec.ControlStory == item.ControlStory
}
