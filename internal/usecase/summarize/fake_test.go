package summarize

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"ai-notebook/internal/domain/entity"
	"ai-notebook/internal/prompt"
)

// fakeCompleter answers extraction prompts with r(<text>) and merge prompts
// with [<part>+<part>...], recording every request.
type fakeCompleter struct {
	mu       sync.Mutex
	requests []entity.CompletionRequest
	fn       func(ctx context.Context, req entity.CompletionRequest) (string, error)

	inFlight    int32
	maxInFlight int32
}

func (f *fakeCompleter) CompleteWithCache(ctx context.Context, req entity.CompletionRequest) (string, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxInFlight, peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(ctx, req)
	}
	return respond(req.Prompt), nil
}

func (f *fakeCompleter) prompts(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.requests {
		if strings.HasPrefix(r.Prompt, prefix) {
			out = append(out, r.Prompt)
		}
	}
	return out
}

func (f *fakeCompleter) requestsWithPrefix(prefix string) []entity.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.CompletionRequest
	for _, r := range f.requests {
		if strings.HasPrefix(r.Prompt, prefix) {
			out = append(out, r)
		}
	}
	return out
}

func respond(p string) string {
	switch {
	case strings.HasPrefix(p, "E:"):
		return "r(" + strings.TrimPrefix(p, "E:") + ")"
	case strings.HasPrefix(p, "M:"):
		return "[" + strings.Join(strings.Split(strings.TrimPrefix(p, "M:"), chunkSeparator), "+") + "]"
	case strings.HasPrefix(p, "F:"):
		return "final(" + strings.TrimPrefix(p, "F:") + ")"
	}
	return p
}

func testPrompts() *prompt.Set {
	return &prompt.Set{
		Extraction:   map[string]string{"test": "E:{text}"},
		Merge:        "M:{text}",
		FinalSummary: "F:{text}",
	}
}

func testProvider(maxChunk int) entity.ProviderConfig {
	return entity.ProviderConfig{
		Name:               entity.ProviderDeepSeek,
		Model:              "deepseek-chat",
		DefaultTemperature: 1.0,
		DefaultMaxTokens:   2000,
		MaxTokensCeiling:   4096,
		MaxChunkSize:       maxChunk,
	}
}
