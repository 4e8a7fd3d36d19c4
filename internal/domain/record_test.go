package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fl(v float64) *float64 { return &v }

func TestScores_Complete(t *testing.T) {
	tests := []struct {
		name   string
		scores *Scores
		want   bool
	}{
		{name: "nil scores", scores: nil, want: false},
		{name: "all present", scores: &Scores{Coherence: fl(7), Style: fl(8), General: fl(6)}, want: true},
		{name: "missing style", scores: &Scores{Coherence: fl(7), General: fl(6)}, want: false},
		{name: "empty", scores: &Scores{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scores.Complete())
		})
	}
}

func TestEvaluation_Complete(t *testing.T) {
	full := &Evaluation{Scores: &Scores{Coherence: fl(7), Style: fl(8), General: fl(6)}}
	assert.True(t, full.Complete())

	// An error is not completion; the item must stay pending for retry.
	failed := EvaluationError(errors.New("boom"))
	assert.False(t, failed.Complete())

	partial := &Evaluation{Scores: &Scores{Coherence: fl(7)}}
	assert.False(t, partial.Complete())

	var nilEval *Evaluation
	assert.False(t, nilEval.Complete())
}

func TestEvaluation_MarshalShapes(t *testing.T) {
	failed := EvaluationError(errors.New("boom"))
	data, err := json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"boom"}`, string(data))

	// Missing score dimensions serialize as explicit nulls.
	partial := &Evaluation{
		Analysis:    "fine",
		Scores:      &Scores{Coherence: fl(7)},
		MissingTags: []string{"style", "general"},
	}
	data, err = json.Marshal(partial)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"analysis": "fine",
		"scores": {"coherence": 7, "style": null, "general": null},
		"missing_tags": ["style", "general"]
	}`, string(data))
}

func TestDetection_RoundTrip(t *testing.T) {
	raw := map[string]any{
		"fraction_ai":      0.93,
		"prediction_short": "AI",
		"headline":         "Likely AI-generated",
		"window_count":     float64(4),
	}
	det := DetectionFromRaw(raw)
	require.NotNil(t, det.FractionAI)
	assert.InDelta(t, 0.93, *det.FractionAI, 1e-9)
	assert.Equal(t, "AI", det.PredictionShort)
	assert.True(t, det.Complete())

	data, err := json.Marshal(det)
	require.NoError(t, err)

	var back Detection
	require.NoError(t, json.Unmarshal(data, &back))
	require.NotNil(t, back.FractionAI)
	assert.InDelta(t, 0.93, *back.FractionAI, 1e-9)
	assert.Equal(t, "Likely AI-generated", back.Headline)
	// Unknown fields survive through Raw.
	assert.Equal(t, float64(4), back.Raw["window_count"])
}

func TestDetection_ErrorShape(t *testing.T) {
	det := DetectionError(errors.New("timeout"))
	assert.False(t, det.Complete())

	data, err := json.Marshal(det)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"timeout"}`, string(data))

	var back Detection
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "timeout", back.Err)
	assert.False(t, back.Complete())
}

func TestNewPlaceholder(t *testing.T) {
	pid := 3
	tests := []struct {
		name string
		item Item
		want *Record
	}{
		{
			name: "pair",
			item: Item{ID: 1, Kind: KindPair, OriginalStory: "a", UnsloppedStory: "b"},
			want: &Record{ID: 1, OriginalStory: "a", UnsloppedStory: "b"},
		},
		{
			name: "single",
			item: Item{ID: 2, Kind: KindSingle, PromptID: &pid, Prompt: "p", Story: "s"},
			want: &Record{ID: 2, PromptID: &pid, Prompt: "p", Story: "s"},
		},
		{
			name: "prompt",
			item: Item{ID: 4, Kind: KindPrompt, PromptID: &pid, Prompt: "p"},
			want: &Record{ID: 4, PromptID: &pid, Prompt: "p"},
		},
		{
			name: "pair with control",
			item: Item{ID: 5, Kind: KindPair, OriginalStory: "a", UnsloppedStory: "b", ControlStory: "c"},
			want: &Record{ID: 5, OriginalStory: "a", UnsloppedStory: "b", ControlStory: "c"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPlaceholder(tt.item))
		})
	}
}

func TestEchoMatches(t *testing.T) {
	pair := Item{ID: 1, Kind: KindPair, OriginalStory: "a", UnsloppedStory: "b"}
	assert.True(t, EchoMatches(&Record{ID: 1, OriginalStory: "a", UnsloppedStory: "b"}, pair))
	assert.False(t, EchoMatches(&Record{ID: 1, OriginalStory: "a", UnsloppedStory: "CHANGED"}, pair))
	assert.False(t, EchoMatches(nil, pair))

	single := Item{ID: 2, Kind: KindSingle, Story: "s"}
	assert.True(t, EchoMatches(&Record{ID: 2, Story: "s"}, single))
	assert.False(t, EchoMatches(&Record{ID: 2, Story: "other"}, single))

	prompt := Item{ID: 3, Kind: KindPrompt, Prompt: "p"}
	assert.True(t, EchoMatches(&Record{ID: 3, Prompt: "p"}, prompt))
	assert.False(t, EchoMatches(&Record{ID: 3, Prompt: "q"}, prompt))
}

func TestControlMatches(t *testing.T) {
	item := Item{ID: 1, Kind: KindPair, ControlStory: "c"}
	assert.True(t, ControlMatches(&Record{ControlStory: "c"}, item))
	assert.False(t, ControlMatches(&Record{ControlStory: "old"}, item))
	assert.False(t, ControlMatches(&Record{}, item))
}
