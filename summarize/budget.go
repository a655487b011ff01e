package summarize

import (
	"math"

	"github.com/hrygo/condense/ai/tokenizer"
)

// budgetTracker divides an advisory token ceiling across the remaining
// chunks of a run. The remaining budget is recomputed after every step from
// the actual token count of what was produced, so overspend on one chunk
// tightens the limit on subsequent chunks and underspend loosens it. The
// limit is a prompting hint only; over-budget output is never truncated or
// rejected.
type budgetTracker struct {
	remaining int
	ratio     float64 // tokens per word
	codec     tokenizer.Codec
}

// newBudgetTracker returns nil when no budget is configured; callers treat
// a nil tracker as "no hint".
func newBudgetTracker(budget int, tokensPerWord float64, codec tokenizer.Codec) *budgetTracker {
	if budget <= 0 {
		return nil
	}
	return &budgetTracker{remaining: budget, ratio: tokensPerWord, codec: codec}
}

// wordLimit computes the soft per-chunk word limit for the next step, given
// how many chunks remain. Never negative: once the budget is exhausted the
// hint becomes zero.
func (b *budgetTracker) wordLimit(remainingChunks int) int {
	if b == nil || remainingChunks <= 0 {
		return 0
	}
	if b.remaining <= 0 {
		return 0
	}
	return int(math.Floor(float64(b.remaining) / float64(remainingChunks) / b.ratio))
}

// consume subtracts the actual token cost of a produced output.
func (b *budgetTracker) consume(output string) {
	if b == nil {
		return
	}
	b.remaining -= b.codec.Count(output)
	if b.remaining < 0 {
		b.remaining = 0
	}
}
