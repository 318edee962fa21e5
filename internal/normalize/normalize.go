// Package normalize coerces untrusted JSON-decoded values into well-formed
// entities. Inputs come from hand-edited imports, legacy exports and
// partially-typed form state, so every field is defaulted rather than
// rejected; the only hard rejections are a non-object value or a missing
// required identity field. All functions are total and idempotent.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andreaspandu8619/mastercreator/internal/models"
)

// Character coerces raw into a canonical character record. It returns
// ok=false only when raw is not an object or lacks a string name.
func Character(raw any) (*models.Character, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	name, ok := m["name"].(string)
	if !ok {
		return nil, false
	}
	name = Collapse(name)
	if name == "" {
		return nil, false
	}

	c := &models.Character{
		Name:          name,
		Gender:        gender(m["gender"]),
		Age:           age(m["age"]),
		Height:        Field(m["height"]),
		Origins:       Field(m["origins"]),
		Personalities: uniqueList(StringList(m["personalities"])),
		UniqueTraits:  uniqueList(StringList(m["uniqueTraits"])),
		Backstory:     StringList(m["backstory"]),
		SystemRules:   Field(m["systemRules"]),
		Synopsis:      Field(m["synopsis"]),
	}

	c.RacePreset, c.Race = resolveRace(m["racePreset"], m["race"])

	c.IntroMessages = StringList(m["introMessages"])
	if len(c.IntroMessages) == 0 {
		// Older exports carried a singular introMessage field.
		if s := scalarString(m["introMessage"]); s != "" {
			c.IntroMessages = []string{s}
		}
	}
	if len(c.IntroMessages) == 0 {
		c.IntroMessages = []string{""}
	}
	c.SelectedIntroIndex = boundedIndex(m["selectedIntroIndex"], len(c.IntroMessages))

	c.ID = ID(m["id"])
	c.CreatedAt = Timestamp(m["createdAt"])
	c.UpdatedAt = Timestamp(m["updatedAt"])
	return c, true
}

// ClampIndex wraps i into [0, n). A non-positive n always yields 0. Used for
// wraparound navigation over intro messages.
func ClampIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// resolveRace applies the preset resolution rules: a recognized preset is
// kept; otherwise unrecognized custom text forces the Other preset; otherwise
// a race matching a preset is adopted as the preset. The display race is the
// preset itself unless the preset is Other, in which case it is the custom
// text.
func resolveRace(rawPreset, rawRace any) (preset, race string) {
	preset = Field(rawPreset)
	race = Field(rawRace)
	switch {
	case models.IsRacePreset(preset):
		// keep
	case race != "" && !models.IsRacePreset(race):
		preset = models.RaceOther
	case models.IsRacePreset(race):
		preset = race
	default:
		preset = ""
	}
	if preset == models.RaceOther {
		return preset, race
	}
	return preset, preset
}

// Collapse trims s and squeezes internal whitespace runs to single spaces.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Field coerces a scalar field value to a collapsed string. Non-string
// values default to "".
func Field(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Collapse(s)
}

// scalarString renders a JSON scalar the way a loosely-typed editor would,
// returning "" for anything falsy.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == 0 {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if !t {
			return ""
		}
		return "true"
	default:
		return ""
	}
}

// StringList accepts an array (elements coerced to trimmed strings, falsy
// entries dropped) or a single scalar promoted to a one-element list.
// Anything else yields an empty list.
func StringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []any:
		for _, el := range t {
			if s := scalarString(el); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, el := range t {
			if s := strings.TrimSpace(el); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := scalarString(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// uniqueList drops case-insensitive duplicates, preserving insertion order.
func uniqueList(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		k := strings.ToLower(s)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}

func gender(v any) models.Gender {
	switch Collapse(Field(v)) {
	case string(models.GenderMale):
		return models.GenderMale
	case string(models.GenderFemale):
		return models.GenderFemale
	default:
		return models.GenderUnspecified
	}
}

// age accepts a non-negative integral number, or a decimal string from
// hand-edited JSON. Anything else is treated as absent.
func age(v any) *int {
	switch t := v.(type) {
	case float64:
		if t < 0 || t != math.Trunc(t) {
			return nil
		}
		n := int(t)
		return &n
	case int:
		if t < 0 {
			return nil
		}
		n := t
		return &n
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil || n < 0 {
			return nil
		}
		return &n
	default:
		return nil
	}
}

// boundedIndex accepts a number only when it indexes into a list of length n;
// everything else defaults to 0.
func boundedIndex(v any, n int) int {
	var i int
	switch t := v.(type) {
	case float64:
		if t != math.Trunc(t) {
			return 0
		}
		i = int(t)
	case int:
		i = t
	default:
		return 0
	}
	if i < 0 || i >= n {
		return 0
	}
	return i
}

// ID preserves a non-empty string id and generates a fresh one otherwise.
// Generated ids are never reused.
func ID(v any) string {
	if s, ok := v.(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return uuid.New().String()
}

// Timestamp preserves a parseable RFC 3339 string and defaults to now.
func Timestamp(v any) string {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if _, err := time.Parse(time.RFC3339, s); err == nil {
			return s
		}
	}
	return Now()
}

// Now renders the current UTC time in the canonical timestamp format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
