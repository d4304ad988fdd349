package triage

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/kilianp07/omnidispatch/core/model"
)

type rule struct {
	kind     model.EmergencyType
	keywords []string
}

// rules are evaluated in order; the first match wins.
var rules = []rule{
	{model.EmergencyFire, []string{"fire", "smoke", "burning", "flames", "explosion", "gas leak", "blaze", "inferno"}},
	{model.EmergencyMedical, []string{"heart", "breathing", "unconscious", "bleeding", "injured", "hurt", "pain", "chest",
		"stroke", "seizure", "fainted", "collapsed", "not breathing", "choking", "overdose",
		"diabetic", "allergic", "pregnant", "labor", "baby", "child sick"}},
	{model.EmergencyCrime, []string{"robbery", "attack", "gun", "theft", "break-in", "assault", "weapon", "threat",
		"violence", "stalking", "kidnap", "murder", "shooting", "stabbing", "intruder"}},
	{model.EmergencyAccident, []string{"accident", "crash", "collision", "hit", "car", "vehicle", "road", "traffic",
		"motorcycle", "truck", "pedestrian", "bike", "bicycle"}},
	{model.EmergencyDisaster, []string{"flood", "water", "drowning", "earthquake", "storm", "disaster", "tornado",
		"hurricane", "lightning", "power line", "building collapse"}},
}

var reassurances = map[model.EmergencyType][]string{
	model.EmergencyFire: {
		"I understand there's a fire. Stay low to avoid smoke and get everyone out safely.",
		"Fire emergency acknowledged. Please evacuate immediately if you haven't already.",
		"Help is being dispatched now. If safe, move away from the fire and meet responders outside.",
	},
	model.EmergencyMedical: {
		"Medical help is on the way. Stay with the person and keep them comfortable.",
		"I'm sending paramedics now. Can you tell me if the person is conscious?",
		"Emergency medical services are being dispatched. Try to keep the person calm and still.",
	},
	model.EmergencyCrime: {
		"Officers are being dispatched. If you're in a safe location, please stay there.",
		"Police are on their way. Do not confront anyone - your safety is the priority.",
		"Help is coming. Stay on the line and describe the situation if you can safely do so.",
	},
	model.EmergencyAccident: {
		"Emergency responders are being sent. Do not move anyone unless they're in immediate danger.",
		"Help is on the way. If there's any traffic hazard, try to warn other drivers if safe.",
		"I'm dispatching units now. Check if anyone is seriously injured and keep them calm.",
	},
	model.EmergencyDisaster: {
		"Emergency teams are being mobilized. Get to higher ground if there's flooding.",
		"Help is being coordinated. Stay away from damaged structures and power lines.",
		"Multiple units are being dispatched. Follow any evacuation orders in your area.",
	},
	model.EmergencyGeneral: {
		"I understand this is an emergency. Help is being sent to your location now.",
		"Emergency services are being dispatched. Please describe the situation further.",
		"I'm sending help right away. Stay calm and stay on the line with me.",
	},
}

var descriptionPrefix = map[model.EmergencyType]string{
	model.EmergencyFire:     "Fire emergency",
	model.EmergencyMedical:  "Medical emergency",
	model.EmergencyCrime:    "Crime reported",
	model.EmergencyAccident: "Accident reported",
	model.EmergencyDisaster: "Disaster situation",
	model.EmergencyGeneral:  "Emergency",
}

// Keyword classifies transcripts with fixed keyword sets. The random source
// only picks among equivalent reassurance phrasings.
type Keyword struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewKeyword returns a keyword classifier. A nil source is seeded from the clock.
func NewKeyword(r *rand.Rand) *Keyword {
	if r == nil {
		r = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 7))
	}
	return &Keyword{rnd: r}
}

// Name implements Named.
func (k *Keyword) Name() string { return SourceFallback }

// Classify implements Classifier and never fails.
func (k *Keyword) Classify(_ context.Context, transcript string) (model.Classification, error) {
	return k.ClassifyText(transcript), nil
}

// ClassifyText applies the taxonomy to transcript.
func (k *Keyword) ClassifyText(transcript string) model.Classification {
	lower := strings.ToLower(transcript)
	kind := model.EmergencyGeneral
	for _, r := range rules {
		if containsAny(lower, r.keywords) {
			kind = r.kind
			break
		}
	}

	c := model.Classification{
		EmergencyType:    kind,
		Priority:         model.PriorityMedium,
		NumberOfVictims:  1,
		SpecialEquipment: []string{},
		Source:           SourceFallback,
	}
	switch kind {
	case model.EmergencyFire:
		c.RequiresFire, c.RequiresMedical = true, true
		c.Priority = model.PriorityCritical
	case model.EmergencyMedical:
		c.RequiresMedical = true
		c.Priority = model.PriorityHigh
	case model.EmergencyCrime:
		c.RequiresPolice = true
		c.RequiresMedical = strings.Contains(lower, "injured") || strings.Contains(lower, "hurt")
		c.Priority = model.PriorityHigh
	case model.EmergencyAccident:
		c.RequiresMedical, c.RequiresPolice = true, true
		c.Priority = model.PriorityHigh
	case model.EmergencyDisaster:
		c.RequiresFire, c.RequiresMedical = true, true
		c.Priority = model.PriorityCritical
	default:
		c.RequiresMedical, c.RequiresPolice = true, true
	}
	c.ImmediateDanger = c.Priority == model.PriorityCritical || c.Priority == model.PriorityHigh
	c.Description = fmt.Sprintf("%s: %s", descriptionPrefix[kind], truncate(transcript, 60))
	c.CallerReassurance = k.pick(reassurances[kind])
	return c
}

func (k *Keyword) pick(options []string) string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return options[k.rnd.IntN(len(options))]
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
