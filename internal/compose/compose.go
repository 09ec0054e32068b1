// Package compose assembles the text part of a generation request from the
// user's note and the number of attached files.
package compose

import "strings"

// Trigger identifies which phrase in the user's note asked for the long-form
// heritage treatment.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerAges
	TriggerHeritage
)

func (t Trigger) String() string {
	switch t {
	case TriggerAges:
		return "through_the_ages"
	case TriggerHeritage:
		return "heritage_story"
	}
	return "none"
}

const (
	phraseAges     = "through the ages"
	phraseHeritage = "heritage story"
)

const heritageElaboration = `Tell this place's heritage story in four chapters:
1. Origins: how it began and who built it.
2. Flourishing: its golden years and daily life at its peak.
3. Decline: what changed, what was lost, and why.
4. Rebirth: how it stands today and what it could become.
Give each chapter a heading and one short, vivid paragraph.`

const defaultInstruction = `Create a before-and-after story page for the attached photos: show what the subject looked like in its prime, what it looks like today, and what happened in between.`

// Detect reports which trigger phrase, if any, appears in the note. Matching
// is case-insensitive; "through the ages" wins when both phrases appear.
func Detect(note string) Trigger {
	lowered := strings.ToLower(note)
	switch {
	case strings.Contains(lowered, phraseAges):
		return TriggerAges
	case strings.Contains(lowered, phraseHeritage):
		return TriggerHeritage
	}
	return TriggerNone
}

// Compose returns the text sent to the model. An empty note with at least one
// file falls back to the stock before-and-after instruction. A note carrying
// a trigger phrase gets the heritage elaboration appended, at most once no
// matter how often the phrases occur. Anything else passes through trimmed.
func Compose(note string, fileCount int) string {
	base := strings.TrimSpace(note)
	if base == "" {
		if fileCount > 0 {
			return defaultInstruction
		}
		return ""
	}

	if Detect(base) != TriggerNone && !strings.Contains(base, heritageElaboration) {
		return base + "\n\n" + heritageElaboration
	}
	return base
}
