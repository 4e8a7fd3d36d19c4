package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slopscope/slopscope/internal/domain"
	"github.com/slopscope/slopscope/internal/store"
)

func fl(v float64) *float64 { return &v }

func completeEval() *domain.Evaluation {
	return &domain.Evaluation{
		Scores: &domain.Scores{Coherence: fl(7), Style: fl(8), General: fl(6)},
	}
}

func singleItems(stories ...string) []domain.Item {
	items := make([]domain.Item, len(stories))
	for i, s := range stories {
		items[i] = domain.Item{ID: i + 1, Kind: domain.KindSingle, Story: s}
	}
	return items
}

// fakeWorker succeeds or fails per item, failing the first failFirst[id]
// calls before succeeding. It counts invocations per id.
type fakeWorker struct {
	mu        sync.Mutex
	calls     map[int]int
	failFirst map[int]int
}

func newFakeWorker(failFirst map[int]int) *fakeWorker {
	if failFirst == nil {
		failFirst = map[int]int{}
	}
	return &fakeWorker{calls: map[int]int{}, failFirst: failFirst}
}

func (w *fakeWorker) Process(_ context.Context, item domain.Item, _ *domain.Record) *domain.Record {
	w.mu.Lock()
	w.calls[item.ID]++
	n := w.calls[item.ID]
	w.mu.Unlock()

	rec := domain.NewPlaceholder(item)
	if n <= w.failFirst[item.ID] {
		rec.StoryEval = &domain.Evaluation{Err: "injected failure"}
	} else {
		rec.StoryEval = completeEval()
	}
	return rec
}

func (w *fakeWorker) callCount(id int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls[id]
}

func (w *fakeWorker) totalCalls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := 0
	for _, n := range w.calls {
		total += n
	}
	return total
}

func runOrchestrator(t *testing.T, items []domain.Item, st *store.Store, worker Worker, output string, cfg Config) error {
	t.Helper()
	orch, err := NewOrchestrator(items, st, worker, store.JudgeComplete, output, cfg, nil)
	require.NoError(t, err)
	return orch.Run(context.Background())
}

func TestOrchestrator_RetriesFailuresAcrossPasses(t *testing.T) {
	// Three items; id 2 fails on pass 1 and succeeds on pass 2. With a
	// budget of two passes everything completes, in id order.
	output := filepath.Join(t.TempDir(), "out.jsonl")
	items := singleItems("a", "b", "c")
	worker := newFakeWorker(map[int]int{2: 1})

	err := runOrchestrator(t, items, store.NewStore(), worker, output,
		Config{MaxPasses: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, worker.callCount(1))
	assert.Equal(t, 2, worker.callCount(2))
	assert.Equal(t, 1, worker.callCount(3))

	final, loadErr := store.Load(output)
	require.NoError(t, loadErr)
	for _, item := range items {
		assert.True(t, store.JudgeComplete(final.Get(item.ID), item),
			"item %d must be complete", item.ID)
	}

	records, readErr := store.ReadAll(output)
	require.NoError(t, readErr)
	require.Len(t, records, 3)
	for i, rec := range records {
		assert.Equal(t, i+1, rec.ID, "output order must follow item order")
	}
}

func TestOrchestrator_FailureIsolation(t *testing.T) {
	// One item failing forever must not keep siblings' successes out of
	// the same pass's snapshot.
	output := filepath.Join(t.TempDir(), "out.jsonl")
	items := singleItems("a", "b", "c")
	worker := newFakeWorker(map[int]int{2: 100})

	err := runOrchestrator(t, items, store.NewStore(), worker, output,
		Config{MaxPasses: 1})
	require.NoError(t, err)

	final, loadErr := store.Load(output)
	require.NoError(t, loadErr)
	assert.True(t, final.Get(1).StoryEval.Complete())
	assert.Equal(t, "injected failure", final.Get(2).StoryEval.Err)
	assert.True(t, final.Get(3).StoryEval.Complete())
}

func TestOrchestrator_PassBudgetLeavesLastError(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.jsonl")
	items := singleItems("a")
	worker := newFakeWorker(map[int]int{1: 100})

	err := runOrchestrator(t, items, store.NewStore(), worker, output,
		Config{MaxPasses: 3})
	require.NoError(t, err, "an exhausted pass budget is not a run failure")

	assert.Equal(t, 3, worker.callCount(1))

	final, loadErr := store.Load(output)
	require.NoError(t, loadErr)
	assert.Equal(t, "injected failure", final.Get(1).StoryEval.Err)
}

func TestOrchestrator_IdempotentRerun(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.jsonl")
	items := singleItems("a", "b")

	first := newFakeWorker(nil)
	require.NoError(t, runOrchestrator(t, items, store.NewStore(), first, output,
		Config{MaxPasses: 2}))
	bytesAfterFirst, readErr := os.ReadFile(output)
	require.NoError(t, readErr)

	// Rerun against the written snapshot: no pending items, no worker
	// calls, and the file is left untouched.
	st, loadErr := store.Load(output)
	require.NoError(t, loadErr)
	second := newFakeWorker(nil)
	require.NoError(t, runOrchestrator(t, items, st, second, output,
		Config{MaxPasses: 2}))

	assert.Equal(t, 0, second.totalCalls())
	bytesAfterSecond, readErr := os.ReadFile(output)
	require.NoError(t, readErr)
	assert.Equal(t, bytesAfterFirst, bytesAfterSecond)
}

func TestOrchestrator_ResumesOnlyIncompleteItems(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.jsonl")
	items := singleItems("a", "b", "c", "d")

	// Seed a snapshot where 1 and 2 are done, 3 failed, 4 was never seen.
	st := store.NewStore()
	for _, id := range []int{1, 2} {
		update := domain.NewPlaceholder(items[id-1])
		update.StoryEval = completeEval()
		st.Merge(items[id-1], update)
	}
	failedUpdate := domain.NewPlaceholder(items[2])
	failedUpdate.StoryEval = &domain.Evaluation{Err: "old failure"}
	st.Merge(items[2], failedUpdate)

	worker := newFakeWorker(nil)
	require.NoError(t, runOrchestrator(t, items, st, worker, output,
		Config{MaxPasses: 2}))

	assert.Equal(t, 0, worker.callCount(1))
	assert.Equal(t, 0, worker.callCount(2))
	assert.Equal(t, 1, worker.callCount(3))
	assert.Equal(t, 1, worker.callCount(4))
}

func TestOrchestrator_DriftInvalidatesStoredSuccess(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.jsonl")
	items := singleItems("a")

	st := store.NewStore()
	oldItem := domain.Item{ID: 1, Kind: domain.KindSingle, Story: "old text"}
	update := domain.NewPlaceholder(oldItem)
	update.StoryEval = completeEval()
	st.Merge(oldItem, update)

	worker := newFakeWorker(nil)
	require.NoError(t, runOrchestrator(t, items, st, worker, output,
		Config{MaxPasses: 2}))

	assert.Equal(t, 1, worker.callCount(1),
		"changed input must be reprocessed despite a stored success")

	final, loadErr := store.Load(output)
	require.NoError(t, loadErr)
	assert.Equal(t, "a", final.Get(1).Story)
	assert.True(t, final.Get(1).StoryEval.Complete())
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, Config{MaxPasses: 0}.Validate())
	assert.Error(t, Config{MaxPasses: -1}.Validate())
	assert.Error(t, Config{MaxPasses: 1, Backoff: -1}.Validate())
	assert.NoError(t, Config{MaxPasses: 1}.Validate())
}

func TestScheduler_PanicLeavesItemPending(t *testing.T) {
	items := singleItems("a", "b")
	panicker := WorkerFunc(func(_ context.Context, item domain.Item, _ *domain.Record) *domain.Record {
		if item.ID == 1 {
			panic("worker bug")
		}
		rec := domain.NewPlaceholder(item)
		rec.StoryEval = completeEval()
		return rec
	})

	sched := NewScheduler(panicker, nil)
	tasks := []Task{{Item: items[0]}, {Item: items[1]}}
	updates := sched.RunPass(context.Background(), tasks)

	require.Len(t, updates, 2)
	assert.Nil(t, updates[0])
	require.NotNil(t, updates[1])
	assert.True(t, updates[1].StoryEval.Complete())
}
