// Package judge scores stories with an LLM literary critic. The model is
// instructed to answer in XML tags; extraction is tolerant by design, since
// a model that drops a tag should produce a null score and a missing-tag
// note, not a failed item.
package judge

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/slopscope/slopscope/internal/domain"
	"github.com/slopscope/slopscope/internal/llm"
)

const systemPrompt = "You are a rigorous literary critic. Analyze the story in depth and then score it. " +
	"Return only XML tags with no extra text."

// scoreTags are the three score dimensions, in response order.
var scoreTags = []string{"coherence", "style", "general"}

var (
	tagPatterns = map[string]*regexp.Regexp{
		"analysis":  tagPattern("analysis"),
		"coherence": tagPattern("coherence"),
		"style":     tagPattern("style"),
		"general":   tagPattern("general"),
	}
	numberPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
)

func tagPattern(tag string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)<` + tag + `>(.*?)</` + tag + `>`)
}

func buildUserPrompt(story string) string {
	return "Analyze the story deeply and place your analysis inside <analysis> tags. " +
		"Then provide three numeric scores from 1 to 10 (10 is best) using XML tags: " +
		"<coherence>, <style>, and <general>. Return only these XML tags in order.\n\n" +
		"<story>\n" + story + "\n</story>"
}

func extractTag(text, tag string) (string, bool) {
	m := tagPatterns[tag].FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func extractScore(text, tag string) *float64 {
	content, ok := extractTag(text, tag)
	if !ok {
		return nil
	}
	m := numberPattern.FindStringSubmatch(content)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseResponse extracts the analysis and the three scores from a judge
// response. Tags are matched case-insensitively across newlines; a score
// whose tag is absent or non-numeric stays null and is listed in
// MissingTags. Parsing never fails.
func ParseResponse(text string) *domain.Evaluation {
	analysis, _ := extractTag(text, "analysis")
	scores := &domain.Scores{
		Coherence: extractScore(text, "coherence"),
		Style:     extractScore(text, "style"),
		General:   extractScore(text, "general"),
	}

	missing := []string{}
	for _, tag := range scoreTags {
		var have *float64
		switch tag {
		case "coherence":
			have = scores.Coherence
		case "style":
			have = scores.Style
		case "general":
			have = scores.General
		}
		if have == nil {
			missing = append(missing, tag)
		}
	}

	return &domain.Evaluation{
		Analysis:    analysis,
		Scores:      scores,
		MissingTags: missing,
	}
}

// Evaluator scores stories through a chat-completions client.
type Evaluator struct {
	client      *llm.Client
	model       string
	maxTokens   int
	temperature float64
}

// NewEvaluator builds an Evaluator. Defaults match the judge runs this was
// tuned on: 900 completion tokens, temperature 0.2.
func NewEvaluator(client *llm.Client, model string, maxTokens int, temperature float64) *Evaluator {
	if maxTokens <= 0 {
		maxTokens = 900
	}
	return &Evaluator{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Evaluate scores one story. A transport or provider failure is returned as
// an error; a parseable response always yields an Evaluation, however
// incomplete.
func (e *Evaluator) Evaluate(ctx context.Context, story string) (*domain.Evaluation, error) {
	resp, err := e.client.Do(ctx, &llm.Request{
		Operation:   llm.OpJudge,
		Model:       e.model,
		System:      systemPrompt,
		User:        buildUserPrompt(story),
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
	})
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(resp.Content)
	eval := ParseResponse(content)
	eval.RawResponse = content
	return eval, nil
}

// Worker computes judge sub-results for one item. Sibling stories of a pair
// are evaluated concurrently; each call holds its own slot against the
// client's global bound. Call failures become error-shaped sub-results, so
// one bad story never fails the item's siblings or the batch.
type Worker struct {
	evaluator *Evaluator
}

// NewWorker builds a judge worker around an evaluator.
func NewWorker(evaluator *Evaluator) *Worker {
	return &Worker{evaluator: evaluator}
}

// Process computes the evaluations the item still needs. Sub-results that
// are already complete in the prior record (with unchanged inputs) are
// skipped; the merge keeps them.
func (w *Worker) Process(ctx context.Context, item domain.Item, prior *domain.Record) *domain.Record {
	rec := domain.NewPlaceholder(item)
	reusable := domain.EchoMatches(prior, item)
	controlReusable := reusable && domain.ControlMatches(prior, item)

	var wg sync.WaitGroup
	evaluate := func(story string, slot **domain.Evaluation) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			eval, err := w.evaluator.Evaluate(ctx, story)
			if err != nil {
				eval = domain.EvaluationError(err)
			}
			*slot = eval
		}()
	}

	switch item.Kind {
	case domain.KindPair:
		if !(reusable && prior.OriginalEval.Complete()) {
			evaluate(item.OriginalStory, &rec.OriginalEval)
		}
		if !(reusable && prior.UnsloppedEval.Complete()) {
			evaluate(item.UnsloppedStory, &rec.UnsloppedEval)
		}
	case domain.KindSingle:
		if !(reusable && prior.StoryEval.Complete()) {
			evaluate(item.Story, &rec.StoryEval)
		}
	}
	if item.ControlStory != "" && !(controlReusable && prior.ControlEval.Complete()) {
		evaluate(item.ControlStory, &rec.ControlEval)
	}

	wg.Wait()
	return rec
}
