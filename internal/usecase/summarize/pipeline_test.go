package summarize

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-notebook/internal/domain/entity"
)

func newTestPipeline(f *fakeCompleter, maxChunk, maxConcurrent int) *Pipeline {
	return NewPipeline(f, testPrompts(), testProvider(maxChunk), NewLimiter(maxConcurrent))
}

func chunkNames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("c%02d", i)
	}
	return out
}

// progressRecorder collects progress values safely.
type progressRecorder struct {
	mu     sync.Mutex
	values []float64
}

func (r *progressRecorder) record(v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *progressRecorder) snapshot() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.values...)
}

func TestSummarize_SingleUnitSkipsMerge(t *testing.T) {
	f := &fakeCompleter{}
	p := newTestPipeline(f, 3000, 5)

	out, err := p.Summarize(context.Background(), []string{"alpha", "beta"}, "test", nil)

	require.NoError(t, err)
	assert.Equal(t, "r(alpha\n\nbeta)", out)
	assert.Len(t, f.requests, 1)
	assert.Empty(t, f.prompts("M:"))
}

func TestSummarize_ExtractionRequestUsesProviderDefaults(t *testing.T) {
	f := &fakeCompleter{}
	p := newTestPipeline(f, 3000, 5)

	_, err := p.Summarize(context.Background(), []string{"alpha"}, "test", nil)
	require.NoError(t, err)

	require.Len(t, f.requests, 1)
	req := f.requests[0]
	assert.Equal(t, "E:alpha", req.Prompt)
	assert.Equal(t, entity.ProviderDeepSeek, req.Provider)
	assert.Nil(t, req.MaxTokens)
	assert.Nil(t, req.Temperature)
}

func TestSummarize_BudgetBoundaryProducesTwoUnits(t *testing.T) {
	f := &fakeCompleter{fn: func(_ context.Context, req entity.CompletionRequest) (string, error) {
		if strings.HasPrefix(req.Prompt, "E:") {
			return fmt.Sprintf("len%d", len(req.Prompt)-2), nil
		}
		return respond(req.Prompt), nil
	}}
	p := newTestPipeline(f, 3000, 5)

	chunks := []string{strings.Repeat("a", 2999), strings.Repeat("b", 2999)}
	out, err := p.Summarize(context.Background(), chunks, "test", nil)

	require.NoError(t, err)
	assert.Len(t, f.prompts("E:"), 2)
	assert.Equal(t, "[len2999+len2999]", out)
}

func TestSummarize_PreservesOrderUnderRandomLatency(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var rngMu sync.Mutex
	delay := func() time.Duration {
		rngMu.Lock()
		defer rngMu.Unlock()
		return time.Duration(rng.Intn(20)) * time.Millisecond
	}

	f := &fakeCompleter{fn: func(ctx context.Context, req entity.CompletionRequest) (string, error) {
		if strings.HasPrefix(req.Prompt, "E:") {
			select {
			case <-time.After(delay()):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		return respond(req.Prompt), nil
	}}
	// A budget of 1 keeps every chunk in its own unit.
	p := newTestPipeline(f, 1, 5)

	out, err := p.Summarize(context.Background(), chunkNames(12), "test", nil)
	require.NoError(t, err)

	a := "[r(c00)+r(c01)+r(c02)]"
	b := "[r(c03)+r(c04)+r(c05)]"
	c := "[r(c06)+r(c07)+r(c08)]"
	d := "[r(c09)+r(c10)+r(c11)]"
	assert.Equal(t, "[["+a+"+"+b+"+"+c+"]+"+d+"]", out)
}

func TestSummarize_CompletionFailureFailsRun(t *testing.T) {
	boom := errors.New("rate limited")
	f := &fakeCompleter{fn: func(_ context.Context, req entity.CompletionRequest) (string, error) {
		if req.Prompt == "E:c03" {
			return "", &entity.CompletionError{Provider: entity.ProviderDeepSeek, Err: boom}
		}
		return respond(req.Prompt), nil
	}}
	p := newTestPipeline(f, 1, 5)

	out, err := p.Summarize(context.Background(), chunkNames(6), "test", nil)

	assert.Empty(t, out)
	var stageErr *entity.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, entity.StageCompletion, stageErr.Stage)

	var completionErr *entity.CompletionError
	assert.ErrorAs(t, err, &completionErr)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "unit 3")
	assert.Empty(t, f.prompts("M:"), "merge must not run after a failed extraction")
}

func TestSummarize_FirstFailureCancelsSiblings(t *testing.T) {
	f := &fakeCompleter{fn: func(ctx context.Context, req entity.CompletionRequest) (string, error) {
		if req.Prompt == "E:c00" {
			return "", errors.New("boom")
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
			return respond(req.Prompt), nil
		}
	}}
	p := newTestPipeline(f, 1, 5)

	start := time.Now()
	_, err := p.Summarize(context.Background(), chunkNames(4), "test", nil)

	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "siblings should be canceled")
	assert.Contains(t, err.Error(), "boom")
}

func TestSummarize_MergeFailure(t *testing.T) {
	f := &fakeCompleter{fn: func(_ context.Context, req entity.CompletionRequest) (string, error) {
		if strings.HasPrefix(req.Prompt, "M:") {
			return "", errors.New("merge rejected")
		}
		return respond(req.Prompt), nil
	}}
	p := newTestPipeline(f, 1, 5)

	_, err := p.Summarize(context.Background(), chunkNames(2), "test", nil)

	var stageErr *entity.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, entity.StageMerge, stageErr.Stage)

	var mergeErr *entity.MergeError
	require.ErrorAs(t, err, &mergeErr)
	assert.Equal(t, 1, mergeErr.Round)
}

func TestSummarize_Validation(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []string
		mode    string
		wantErr error
	}{
		{name: "unknown mode", chunks: []string{"a"}, mode: "poetry", wantErr: entity.ErrUnknownMode},
		{name: "no chunks", chunks: nil, mode: "test", wantErr: entity.ErrEmptyInput},
		{name: "blank chunks", chunks: []string{" ", "\n"}, mode: "test", wantErr: entity.ErrEmptyInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeCompleter{}
			_, err := newTestPipeline(f, 3000, 5).Summarize(context.Background(), tt.chunks, tt.mode, nil)

			var stageErr *entity.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, entity.StageValidation, stageErr.Stage)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Empty(t, f.requests)
		})
	}
}

func TestSummarize_Progress(t *testing.T) {
	f := &fakeCompleter{}
	p := newTestPipeline(f, 1, 3)
	rec := &progressRecorder{}

	_, err := p.Summarize(context.Background(), chunkNames(8), "test", rec.record)
	require.NoError(t, err)

	values := rec.snapshot()
	require.Len(t, values, 8)
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1], "progress must not go backwards")
	}
	assert.InDelta(t, 0.125, values[0], 1e-9)
	assert.InDelta(t, 1.0, values[len(values)-1], 1e-9)
}

func TestSummarize_ProgressTotalIsUnitCount(t *testing.T) {
	f := &fakeCompleter{}
	p := newTestPipeline(f, 3000, 5)
	rec := &progressRecorder{}

	// Four small chunks pack into one unit.
	_, err := p.Summarize(context.Background(), []string{"a", "b", "c", "d"}, "test", rec.record)
	require.NoError(t, err)

	assert.Equal(t, []float64{1.0}, rec.snapshot())
}

func TestSummarize_PanickingObserverIgnored(t *testing.T) {
	f := &fakeCompleter{}
	p := newTestPipeline(f, 1, 5)

	out, err := p.Summarize(context.Background(), chunkNames(3), "test", func(float64) {
		panic("observer bug")
	})

	require.NoError(t, err)
	assert.Equal(t, "[r(c00)+r(c01)+r(c02)]", out)
}

func TestSummarize_RespectsConcurrencyLimit(t *testing.T) {
	f := &fakeCompleter{fn: func(_ context.Context, req entity.CompletionRequest) (string, error) {
		time.Sleep(10 * time.Millisecond)
		return respond(req.Prompt), nil
	}}
	p := newTestPipeline(f, 1, 2)

	_, err := p.Summarize(context.Background(), chunkNames(10), "test", nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, f.maxInFlight, int32(2))
	assert.Equal(t, int32(2), f.maxInFlight)
}

func TestSummarize_SharedLimiterAcrossPipelines(t *testing.T) {
	f := &fakeCompleter{fn: func(_ context.Context, req entity.CompletionRequest) (string, error) {
		time.Sleep(5 * time.Millisecond)
		return respond(req.Prompt), nil
	}}
	limiter := NewLimiter(3)
	a := NewPipeline(f, testPrompts(), testProvider(1), limiter)
	b := NewPipeline(f, testPrompts(), testProvider(1), limiter)

	var wg sync.WaitGroup
	for _, p := range []*Pipeline{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Summarize(context.Background(), chunkNames(6), "test", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, f.maxInFlight, int32(3))
}

func TestFinalSummary(t *testing.T) {
	f := &fakeCompleter{}
	p := newTestPipeline(f, 3000, 5)

	out, err := p.FinalSummary(context.Background(), "merged graph")
	require.NoError(t, err)
	assert.Equal(t, "final(merged graph)", out)

	reqs := f.requestsWithPrefix("F:")
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].MaxTokens)
	assert.Equal(t, 2000, *reqs[0].MaxTokens)
}

func TestFinalSummary_Errors(t *testing.T) {
	f := &fakeCompleter{fn: func(context.Context, entity.CompletionRequest) (string, error) {
		return "", entity.ErrEmptyResponse
	}}
	p := newTestPipeline(f, 3000, 5)

	_, err := p.FinalSummary(context.Background(), "")
	var stageErr *entity.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, entity.StageValidation, stageErr.Stage)

	_, err = p.FinalSummary(context.Background(), "x")
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, entity.StageFinalSummary, stageErr.Stage)
	assert.True(t, errors.Is(err, entity.ErrEmptyResponse))
}
