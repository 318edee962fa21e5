package export

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreaspandu8619/mastercreator/internal/models"
	"github.com/andreaspandu8619/mastercreator/pkg/cache"
)

func fullCharacter() models.Character {
	age := 23
	return models.Character{
		ID:         "aria",
		Name:       "Aria",
		Gender:     models.GenderFemale,
		Age:        &age,
		Height:     `5'7"`,
		Origins:    "Northern wastes",
		RacePreset: "Elf",
		Personalities: []string{
			"brave",
			"curious",
		},
		UniqueTraits: []string{"silver eyes"},
		Backstory: []string{
			"Raised by wolves.",
			"Exiled at sixteen.",
		},
		SystemRules:        "Never breaks a promise.",
		Synopsis:           "A wanderer looking for home.",
		IntroMessages:      []string{"", "Well met, traveler.", "You again?"},
		SelectedIntroIndex: 1,
		CreatedAt:          "2026-01-02T03:04:05Z",
		UpdatedAt:          "2026-01-02T03:04:05Z",
	}
}

func TestCharacterTextSheet(t *testing.T) {
	g := goldie.New(t)
	g.Assert(t, "character_sheet", []byte(CharacterText(fullCharacter())))
}

func TestCharacterTextMinimal(t *testing.T) {
	c := models.Character{
		ID:            "nix",
		Name:          "Nix",
		IntroMessages: []string{""},
	}
	// Only the default blank intro exists, so no intro section renders.
	assert.Equal(t, "# Nix\n", CharacterText(c))
}

func TestCharacterTextCustomRace(t *testing.T) {
	c := models.Character{
		Name:          "Vel",
		Race:          "Construct of living glass",
		RacePreset:    models.RaceOther,
		IntroMessages: []string{""},
	}
	assert.Contains(t, CharacterText(c), "Race: Construct of living glass\n")
}

func TestStoryTextSheet(t *testing.T) {
	cast := map[string]models.Character{
		"aria":  {ID: "aria", Name: "Aria"},
		"borin": {ID: "borin", Name: "Borin"},
	}
	lookup := func(id string) (models.Character, bool) {
		c, ok := cast[id]
		return c, ok
	}
	p := models.StoryProject{
		ID:           "winter",
		Title:        "The Long Winter",
		CharacterIDs: []string{"aria", "borin", "ghost"},
		Scenario:     "Snow has not stopped for a year.",
		PlotPoints:   []string{"The well freezes", "A stranger arrives"},
		Relationships: []models.StoryRelationship{
			{
				ID:              "r1",
				FromCharacterID: "aria",
				ToCharacterID:   "borin",
				Alignment:       models.AlignmentRival,
				RelationType:    models.RelationAdversarial,
				Details:         "old grudge",
			},
			{
				ID:              "r2",
				FromCharacterID: "borin",
				ToCharacterID:   "ghost",
				Alignment:       models.AlignmentNeutral,
				RelationType:    models.RelationOther,
			},
		},
	}

	g := goldie.New(t)
	g.Assert(t, "story_sheet", []byte(StoryText(p, lookup)))
}

func TestCharactersJSONRoundTrips(t *testing.T) {
	chars := []models.Character{fullCharacter()}

	data, err := CharactersJSON(chars)
	require.NoError(t, err)

	var back []models.Character
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, chars, back)
}

func TestCharactersJSONEmpty(t *testing.T) {
	data, err := CharactersJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRendererMemoizes(t *testing.T) {
	r := NewRenderer(cache.NewCache())
	c := fullCharacter()

	first := r.CharacterText(c)
	second := r.CharacterText(c)
	assert.Equal(t, first, second)

	// A mutation bumps updatedAt, which changes the cache key.
	c.Name = "Aria Stormborn"
	c.UpdatedAt = "2026-02-01T00:00:00Z"
	third := r.CharacterText(c)
	assert.Contains(t, third, "# Aria Stormborn")
}
