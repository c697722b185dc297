package categorizer

import (
	"context"
	"sync"

	"fjacquet/bankflow/internal/models"
)

// fakeAIClient is a scripted AIClient. Each call pops the next response;
// once the script runs out the last entry repeats.
type fakeAIClient struct {
	mu      sync.Mutex
	script  []fakeReply
	calls   int
	prompts []string
}

type fakeReply struct {
	text  string
	err   error
	block bool
}

func (f *fakeAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	idx := f.calls
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	f.calls++
	f.prompts = append(f.prompts, prompt)
	reply := f.script[idx]
	f.mu.Unlock()

	if reply.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply.text, reply.err
}

func (f *fakeAIClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type staticPatterns []models.CategoryPattern

func (s staticPatterns) ListPatterns(context.Context) ([]models.CategoryPattern, error) {
	return s, nil
}
