package advice

import (
	"context"
	"strings"

	"github.com/kilianp07/omnidispatch/core/model"
)

// SignOff closes a call.
const SignOff = "Stay safe. Help is on the way. You're doing great - hang in there."

var closingWords = []string{"thank", "thanks", "bye", "goodbye", "stop", "that's all", "thats all"}

// Canned answers from a fixed table keyed by emergency type and situational
// keywords.
type Canned struct{}

// Advise implements Advisor and never fails.
func (Canned) Advise(_ context.Context, req Request) (string, error) {
	return cannedAnswer(req), nil
}

func cannedAnswer(req Request) string {
	t := strings.ToLower(req.Transcript)
	if req.Ending || has(t, closingWords...) {
		return SignOff
	}
	kind := req.Context.EmergencyType

	switch {
	case has(t, "flood", "water") || kind == model.EmergencyDisaster:
		switch {
		case has(t, "rising", "filling", "coming in"):
			return "Water rising is dangerous. Move to the highest point NOW - upper floor, table, counter. Don't touch any electrical outlets. Help is coming."
		case has(t, "stuck", "trapped"):
			return "I hear you're trapped. Get to the highest spot possible. Signal from a window if you can. Rescue teams are trained for this - they WILL reach you."
		}
		return "In flood conditions: get to high ground immediately. Avoid electrical sources. If you have a flashlight or phone, use it to signal rescuers from a window."

	case has(t, "fire", "smoke", "burning") || kind == model.EmergencyFire:
		switch {
		case has(t, "spreading", "worse"):
			return "Stay low to the ground - smoke rises. Cover your mouth with cloth if possible. Find the nearest exit away from the fire. Close doors behind you."
		case has(t, "trapped", "stuck"):
			return "If you're trapped, seal the door gaps with cloth or towels. Go to a window and signal for help. Stay low where air is cleaner."
		}
		return "Stay low and move toward the nearest exit. Close doors behind you to slow the fire. If smoke is thick, crawl - cleaner air is near the floor."

	case kind == model.EmergencyMedical:
		switch {
		case has(t, "not breathing", "unconscious"):
			return "Check if they're breathing. If not, start chest compressions - push hard and fast on the center of their chest. Paramedics are rushing to you."
		case has(t, "bleeding"):
			return "Apply firm, direct pressure to the wound with a clean cloth. Keep pressing and don't lift to check. Elevate the injured area if possible."
		}
		return "Keep the person calm and still. Monitor their breathing. If they're conscious, have them sit or lie in a comfortable position."

	case kind == model.EmergencyCrime:
		if has(t, "still here", "inside") {
			return "Stay hidden and silent. Lock or barricade your door if possible. Don't confront them. Text me updates if speaking is dangerous."
		}
		return "Officers are responding. Stay in a safe location. If you can safely observe, note any descriptions - clothing, direction they went."

	case kind == model.EmergencyAccident:
		return "Don't move anyone who is injured unless they're in immediate danger. Turn off the vehicle ignition if you can, and keep clear of traffic."
	}
	return "Help is on the way. Tell me more about what's happening right now so I can guide you."
}

func has(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
