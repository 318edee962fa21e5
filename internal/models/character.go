package models

// Gender is the character's gender label. The empty string means unspecified.
type Gender string

const (
	GenderMale        Gender = "Male"
	GenderFemale      Gender = "Female"
	GenderUnspecified Gender = ""
)

// RaceOther marks a character whose race is custom free text rather than a preset.
const RaceOther = "Other"

// RacePresets is the fixed set of selectable races, in display order.
// RaceOther is a valid preset value but lives outside this list.
var RacePresets = []string{
	"Human",
	"Elf",
	"Dwarf",
	"Orc",
	"Demon",
	"Angel",
	"Vampire",
	"Beastkin",
	"Android",
}

// IsRacePreset reports whether v is a recognized race preset, including RaceOther.
func IsRacePreset(v string) bool {
	if v == RaceOther {
		return true
	}
	for _, p := range RacePresets {
		if v == p {
			return true
		}
	}
	return false
}

// Character is a single authored character record. Timestamps are RFC 3339
// strings because records round-trip through hand-edited JSON exports.
type Character struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Gender             Gender   `json:"gender"`
	Age                *int     `json:"age,omitempty"`
	Height             string   `json:"height"`
	Origins            string   `json:"origins"`
	Race               string   `json:"race"`
	RacePreset         string   `json:"racePreset"`
	Personalities      []string `json:"personalities"`
	UniqueTraits       []string `json:"uniqueTraits"`
	Backstory          []string `json:"backstory"`
	SystemRules        string   `json:"systemRules"`
	Synopsis           string   `json:"synopsis"`
	IntroMessages      []string `json:"introMessages"`
	SelectedIntroIndex int      `json:"selectedIntroIndex"`
	CreatedAt          string   `json:"createdAt"`
	UpdatedAt          string   `json:"updatedAt"`
}

// SelectedIntro returns the currently selected intro message.
func (c *Character) SelectedIntro() string {
	if c.SelectedIntroIndex < 0 || c.SelectedIntroIndex >= len(c.IntroMessages) {
		return ""
	}
	return c.IntroMessages[c.SelectedIntroIndex]
}
