// Package detector runs story variants through an AI-text detection API and
// records the full response alongside the lifted fraction_ai and label
// fields used by completion checks and aggregation.
package detector

import (
	"context"
	"sync"

	"github.com/slopscope/slopscope/internal/domain"
	"github.com/slopscope/slopscope/internal/llm"
)

// Client performs one detection call per text.
type Client struct {
	llm *llm.Client
}

// NewClient builds a detection client.
func NewClient(c *llm.Client) *Client {
	return &Client{llm: c}
}

// Detect classifies one text. Transport and provider failures are returned
// as errors; a successful response always yields a Detection, even when the
// API omits fraction_ai (the item then stays pending).
func (c *Client) Detect(ctx context.Context, text string) (*domain.Detection, error) {
	resp, err := c.llm.Do(ctx, &llm.Request{
		Operation: llm.OpDetect,
		Text:      text,
	})
	if err != nil {
		return nil, err
	}
	return domain.DetectionFromRaw(resp.Raw), nil
}

// Worker computes detection sub-results for one item. Variants are
// submitted concurrently, each holding its own slot against the client's
// global bound; failures become error-shaped sub-results.
type Worker struct {
	client *Client
}

// NewWorker builds a detection worker.
func NewWorker(client *Client) *Worker {
	return &Worker{client: client}
}

// Process computes the detections the item still needs, skipping sub-results
// already complete in the prior record with unchanged inputs.
func (w *Worker) Process(ctx context.Context, item domain.Item, prior *domain.Record) *domain.Record {
	rec := domain.NewPlaceholder(item)
	reusable := domain.EchoMatches(prior, item)
	controlReusable := reusable && domain.ControlMatches(prior, item)

	var wg sync.WaitGroup
	detect := func(text string, slot **domain.Detection) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			det, err := w.client.Detect(ctx, text)
			if err != nil {
				det = domain.DetectionError(err)
			}
			*slot = det
		}()
	}

	switch item.Kind {
	case domain.KindPair:
		if !(reusable && prior.OriginalDetection.Complete()) {
			detect(item.OriginalStory, &rec.OriginalDetection)
		}
		if !(reusable && prior.UnsloppedDetection.Complete()) {
			detect(item.UnsloppedStory, &rec.UnsloppedDetection)
		}
	case domain.KindSingle:
		if !(reusable && prior.StoryDetection.Complete()) {
			detect(item.Story, &rec.StoryDetection)
		}
	}
	if item.ControlStory != "" && !(controlReusable && prior.ControlDetection.Complete()) {
		detect(item.ControlStory, &rec.ControlDetection)
	}

	wg.Wait()
	return rec
}
