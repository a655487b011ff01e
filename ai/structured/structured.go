// Package structured handles schema-constrained model output: code-fence
// stripping, tolerant JSON parsing, and a bounded validate/repair loop.
package structured

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hrygo/condense/ai/llm"
)

// Sentinel captures a reply that failed to parse as JSON. It is written in
// place of the parsed value so one malformed chunk does not abort the job.
type Sentinel struct {
	ParseError string `json:"parse_error"`
	Raw        string `json:"raw"`
}

// UnprocessableError reports a repair loop that exhausted its attempts
// without producing a schema-valid value. It is distinguishable from a hard
// failure: a best-effort value and the final raw reply are still available.
type UnprocessableError struct {
	Attempts    int
	BestEffort  any    // most-recent parsed value, or a Sentinel
	RawResponse string // final raw model reply
	Cause       error  // last parse or validation error
}

func (e *UnprocessableError) Error() string {
	return fmt.Sprintf("schema repair exhausted after %d attempts: %v", e.Attempts, e.Cause)
}

// StripFences removes a surrounding markdown code block, which models often
// wrap JSON replies in despite instructions.
func StripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// Parse strips fences and decodes exactly one JSON value. On failure it
// returns a Sentinel carrying the error and the raw text, and false.
func Parse(raw string) (any, bool) {
	stripped := StripFences(raw)
	var v any
	if err := json.Unmarshal([]byte(stripped), &v); err != nil {
		return Sentinel{ParseError: err.Error(), Raw: raw}, false
	}
	return v, true
}

// Instruction returns the system-prompt extension for schema-constrained
// output.
func Instruction(schemaJSON string) string {
	return "Respond with exactly one JSON value conforming to this JSON Schema, with no surrounding prose or code fences:\n" + schemaJSON
}

const repairDirective = "Your previous response was not valid against the required JSON Schema. " +
	"Repair it into a schema-conformant JSON value. Preserve its content; change only what is needed to satisfy the schema. " +
	"Respond with the JSON value only."

// GenerateValidated invokes the model up to attempts times, validating each
// reply against schemaJSON. On the first valid reply it returns the parsed
// value. After exhausting attempts it returns an *UnprocessableError carrying
// the best-effort value and the final raw reply.
func GenerateValidated(ctx context.Context, svc llm.Service, systemPrompt string, transcript []llm.Message, opts llm.Options, schemaJSON string, attempts int) (any, string, error) {
	if attempts < 1 {
		return nil, "", fmt.Errorf("attempts must be >= 1, got %d", attempts)
	}
	schema, err := jsonschema.CompileString("request.schema.json", schemaJSON)
	if err != nil {
		return nil, "", fmt.Errorf("compile schema: %w", err)
	}

	messages := append([]llm.Message(nil), transcript...)

	var (
		bestEffort any
		lastRaw    string
		lastErr    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := svc.Invoke(ctx, systemPrompt, messages, opts)
		if err != nil {
			if attempt == attempts {
				return nil, lastRaw, err
			}
			slog.Warn("structured: invoke failed, retrying", "attempt", attempt, "error", err)
			lastErr = err
			continue
		}
		lastRaw = raw

		parsed, ok := Parse(raw)
		bestEffort = parsed
		if ok {
			if err := schema.Validate(parsed); err == nil {
				return parsed, raw, nil
			} else {
				lastErr = err
			}
		} else {
			lastErr = fmt.Errorf("reply is not valid JSON")
		}

		slog.Debug("structured: invalid reply", "attempt", attempt, "error", lastErr)

		if attempt < attempts {
			// Feed the invalid reply back verbatim with a repair directive.
			messages = append(messages,
				llm.AssistantMessage(raw),
				llm.UserMessage(repairDirective),
			)
		}
	}

	return nil, lastRaw, &UnprocessableError{
		Attempts:    attempts,
		BestEffort:  bestEffort,
		RawResponse: lastRaw,
		Cause:       lastErr,
	}
}
