// Package tokenizer adapts BPE token encodings for chunk sizing decisions.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Codec converts text to and from a countable token sequence for one named
// encoding. It is used only for sizing decisions, never for semantics.
type Codec interface {
	Encode(text string) []int
	Decode(tokens []int) string
	Count(text string) int
}

var (
	mu     sync.Mutex
	codecs = map[string]Codec{}
)

// Get returns the codec for a named encoding (e.g. "cl100k_base").
// Codecs are cached process-wide; tiktoken ranks are expensive to load.
func Get(encoding string) (Codec, error) {
	mu.Lock()
	defer mu.Unlock()

	if c, ok := codecs[encoding]; ok {
		return c, nil
	}
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("get tiktoken encoding %q: %w", encoding, err)
	}
	c := &tiktokenCodec{tke: tke}
	codecs[encoding] = c
	return c, nil
}

type tiktokenCodec struct {
	tke *tiktoken.Tiktoken
}

func (c *tiktokenCodec) Encode(text string) []int {
	return c.tke.Encode(text, nil, nil)
}

func (c *tiktokenCodec) Decode(tokens []int) string {
	return c.tke.Decode(tokens)
}

func (c *tiktokenCodec) Count(text string) int {
	return len(c.tke.Encode(text, nil, nil))
}
