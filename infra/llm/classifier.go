package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kilianp07/omnidispatch/core/model"
)

const classifierPrompt = `You are an emergency dispatch triage assistant. Analyze the call and respond with ONLY valid JSON (no markdown):
{
    "emergency_type": "fire|medical|crime|accident|disaster|general",
    "priority": "critical|high|medium|low",
    "description": "Brief 10-word description",
    "requires_fire": true/false,
    "requires_medical": true/false,
    "requires_police": true/false,
    "number_of_victims": number (0 if unknown),
    "immediate_danger": true/false,
    "special_equipment": [],
    "caller_reassurance": "A calm 1-sentence reassurance"
}`

// Classifier reads transcripts with a chat model.
type Classifier struct {
	*Client
}

// NewClassifier wraps c as a triage classifier.
func NewClassifier(c *Client) *Classifier { return &Classifier{Client: c} }

// Classify asks the model for a JSON classification and validates it.
func (c *Classifier) Classify(ctx context.Context, transcript string) (model.Classification, error) {
	content, err := c.complete(ctx, "classifier", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: classifierPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("EMERGENCY: %q", transcript)},
	}, 0.1, 400)
	if err != nil {
		return model.Classification{}, err
	}
	return ParseClassification(c.name, content)
}

// ParseClassification decodes a model answer, tolerating a surrounding code
// fence, and tags it with source.
func ParseClassification(source, content string) (model.Classification, error) {
	raw := stripFence(content)
	var cl model.Classification
	if err := json.Unmarshal([]byte(raw), &cl); err != nil {
		return model.Classification{}, &model.MalformedResponseError{Component: source + "/classifier", Raw: content, Err: err}
	}
	if err := cl.Validate(); err != nil {
		return model.Classification{}, &model.MalformedResponseError{Component: source + "/classifier", Raw: content, Err: err}
	}
	if cl.SpecialEquipment == nil {
		cl.SpecialEquipment = []string{}
	}
	cl.Source = source
	return cl, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
