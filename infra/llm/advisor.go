package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kilianp07/omnidispatch/core/advice"
	"github.com/kilianp07/omnidispatch/core/model"
)

const advisorPrompt = `You are an emergency assistant staying on the line with a caller until responders arrive.
Give real, actionable survival advice in 2-3 short sentences. Never only say "help is coming".
React to worsening conditions (water rising, fire spreading, bleeding) with immediate steps.
If the caller says thank you, bye, stop or that's all, give a brief caring sign-off.

Floods: move to the highest point, avoid electrical outlets, signal from a window if trapped.
Fires: stay low, feel doors before opening, close doors behind you, stop drop and roll, seal door gaps if trapped.
Medical: keep the patient still, press on bleeding wounds, back blows then abdominal thrusts for choking, recovery position if unconscious.
Crimes: stay hidden and quiet, lock or barricade, note descriptions, never confront armed individuals.
Accidents: do not move the injured unless in danger, turn off the ignition, keep clear of traffic.`

// Advisor produces caller guidance with a chat model.
type Advisor struct {
	*Client
}

// NewAdvisor wraps c as a guidance advisor.
func NewAdvisor(c *Client) *Advisor { return &Advisor{Client: c} }

// Advise implements advice.Advisor.
func (a *Advisor) Advise(ctx context.Context, req advice.Request) (string, error) {
	msgs := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req)}}
	for _, t := range req.History {
		role := openai.ChatMessageRoleUser
		if t.Speaker == model.SpeakerAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}
	if len(req.History) == 0 || req.History[len(req.History)-1].Text != req.Transcript {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Transcript})
	}
	return a.complete(ctx, "advisor", msgs, 0.7, 200)
}

func systemPrompt(req advice.Request) string {
	var b strings.Builder
	b.WriteString(advisorPrompt)
	if c := req.Context; !c.Empty() {
		fmt.Fprintf(&b, "\n\nCURRENT EMERGENCY:\n- Type: %s\n- Priority: %s\n- Description: %s\n- Immediate danger: %t\n- Units dispatched: %s\n- ETA: %d minutes",
			c.EmergencyType, c.Priority, c.Description, c.ImmediateDanger, strings.Join(c.UnitsDispatched, ", "), c.ETAMinutes)
	}
	switch {
	case req.Ending:
		b.WriteString("\n\nThe caller is ending the call. Sign off briefly.")
	case req.FirstContact:
		b.WriteString("\n\nUnits were just dispatched. Give the first survival steps.")
	}
	return b.String()
}
