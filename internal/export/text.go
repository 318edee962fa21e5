package export

import (
	"fmt"
	"strings"

	"github.com/andreaspandu8619/mastercreator/internal/models"
	"github.com/andreaspandu8619/mastercreator/pkg/cache"
)

// CharacterText flattens a character into a plain-text sheet. Empty fields
// and sections are omitted; the selected intro is marked with ">>".
func CharacterText(c models.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", c.Name)
	writeField(&b, "Gender", string(c.Gender))
	if c.Age != nil {
		writeField(&b, "Age", fmt.Sprintf("%d", *c.Age))
	}
	writeField(&b, "Height", c.Height)
	writeField(&b, "Origins", c.Origins)
	writeField(&b, "Race", raceLabel(c))
	writeList(&b, "Personality", c.Personalities)
	writeList(&b, "Unique Traits", c.UniqueTraits)
	writeList(&b, "Backstory", c.Backstory)
	writeBlock(&b, "System Rules", c.SystemRules)
	writeBlock(&b, "Synopsis", c.Synopsis)
	writeIntros(&b, c)
	return b.String()
}

// StoryText flattens a story project into a plain-text sheet. Character ids
// are resolved to names through lookup; ids that no longer resolve are kept
// and marked unknown rather than dropped.
func StoryText(p models.StoryProject, lookup func(id string) (models.Character, bool)) string {
	name := func(id string) string {
		if c, ok := lookup(id); ok {
			return c.Name
		}
		return id + " (unknown)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", p.Title)
	writeBlock(&b, "Scenario", p.Scenario)
	if len(p.CharacterIDs) > 0 {
		b.WriteString("\n## Cast\n")
		for _, id := range p.CharacterIDs {
			fmt.Fprintf(&b, "- %s\n", name(id))
		}
	}
	writeList(&b, "Plot Points", p.PlotPoints)
	if len(p.Relationships) > 0 {
		b.WriteString("\n## Relationships\n")
		for _, r := range p.Relationships {
			fmt.Fprintf(&b, "- %s -> %s [%s, %s]", name(r.FromCharacterID), name(r.ToCharacterID), r.Alignment, r.RelationType)
			if r.Details != "" {
				fmt.Fprintf(&b, " %s", r.Details)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Renderer memoizes text rendering. Cache keys carry the entity's updatedAt,
// so a stale entry can never be served for a mutated record.
type Renderer struct {
	cache *cache.Cache
}

// NewRenderer builds a renderer over the given cache.
func NewRenderer(c *cache.Cache) *Renderer {
	return &Renderer{cache: c}
}

// CharacterText renders a character sheet, reusing a cached rendering when
// the character has not changed since.
func (r *Renderer) CharacterText(c models.Character) string {
	key := "character:" + c.ID + ":" + c.UpdatedAt
	if doc, ok := r.cache.Get(key); ok {
		return doc
	}
	doc := CharacterText(c)
	r.cache.Set(key, doc)
	return doc
}

// StoryText renders a story sheet. Story renderings are not memoized: the
// output depends on every cast member's current name, not just the story
// record.
func (r *Renderer) StoryText(p models.StoryProject, lookup func(id string) (models.Character, bool)) string {
	return StoryText(p, lookup)
}

func raceLabel(c models.Character) string {
	if c.RacePreset != "" && c.RacePreset != models.RaceOther {
		return c.RacePreset
	}
	return c.Race
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", name, value)
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func writeBlock(b *strings.Builder, heading, text string) {
	if text == "" {
		return
	}
	fmt.Fprintf(b, "\n## %s\n%s\n", heading, text)
}

// writeIntros numbers intros by their position so the marker lines up with
// what the editor shows. Blank intros are skipped; a sheet for a character
// with only the default blank intro has no intro section at all.
func writeIntros(b *strings.Builder, c models.Character) {
	hasIntro := false
	for _, msg := range c.IntroMessages {
		if msg != "" {
			hasIntro = true
			break
		}
	}
	if !hasIntro {
		return
	}
	b.WriteString("\n## Intro Messages\n")
	for i, msg := range c.IntroMessages {
		if msg == "" {
			continue
		}
		marker := "  "
		if i == c.SelectedIntroIndex {
			marker = ">>"
		}
		fmt.Fprintf(b, "%s %d. %s\n", marker, i+1, msg)
	}
}
