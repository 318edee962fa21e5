package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/andreaspandu8619/mastercreator/internal/models"
	apperrors "github.com/andreaspandu8619/mastercreator/pkg/errors"
	"github.com/andreaspandu8619/mastercreator/pkg/logger"
)

// Field names accepted by Generate.
const (
	FieldPersonalities = "personalities"
	FieldUniqueTraits  = "uniqueTraits"
	FieldBackstory     = "backstory"
	FieldSystemRules   = "systemRules"
	FieldSynopsis      = "synopsis"
	FieldIntroMessage  = "introMessage"
)

var listFields = map[string]bool{
	FieldPersonalities: true,
	FieldUniqueTraits:  true,
	FieldBackstory:     true,
}

// Suggestion is the outcome of one field generation. Exactly one of Text or
// Items is populated, matching the field's shape.
type Suggestion struct {
	Field string   `json:"field"`
	Text  string   `json:"text,omitempty"`
	Items []string `json:"items,omitempty"`
}

// Generator produces per-field suggestions for the character editor. At most
// one generation runs per character at a time; a second request while one is
// in flight fails fast instead of queueing.
type Generator struct {
	client *Client
	log    *logger.Logger

	mu   sync.Mutex
	busy map[string]bool
}

// NewGenerator builds a generator over the given client.
func NewGenerator(client *Client, log *logger.Logger) *Generator {
	return &Generator{
		client: client,
		log:    log.WithComponent("generator"),
		busy:   make(map[string]bool),
	}
}

// Generate produces a suggestion for one field of the character. The rest of
// the character record is sent as context so suggestions stay consistent
// with what is already written.
func (g *Generator) Generate(ctx context.Context, field string, c models.Character) (*Suggestion, error) {
	system, user, err := buildPrompt(field, c)
	if err != nil {
		return nil, err
	}

	key := c.ID
	if key == "" {
		key = "draft"
	}
	if !g.acquire(key) {
		return nil, apperrors.NewBusyError("a generation is already running for this character")
	}
	defer g.release(key)

	raw, err := g.client.Complete(ctx, system, user)
	if err != nil {
		g.log.LogError(err, "field generation failed", "field", field)
		return nil, apperrors.NewGenerationError(err.Error())
	}

	s := &Suggestion{Field: field}
	if listFields[field] {
		s.Items = ParseList(raw)
		if len(s.Items) == 0 {
			return nil, apperrors.NewGenerationError("the model returned nothing usable for " + field)
		}
	} else {
		s.Text = ParseText(raw)
		if s.Text == "" {
			return nil, apperrors.NewGenerationError("the model returned nothing usable for " + field)
		}
	}
	return s, nil
}

func (g *Generator) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy[key] {
		return false
	}
	g.busy[key] = true
	return true
}

func (g *Generator) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, key)
}

func buildPrompt(field string, c models.Character) (system, user string, err error) {
	system = "You help a writer flesh out fictional characters. Stay consistent " +
		"with the details provided and invent nothing that contradicts them."

	sheet := characterContext(c)
	switch field {
	case FieldPersonalities:
		user = sheet + "\n\nSuggest 4 to 6 personality traits for this character. " +
			"Respond with a JSON array of short strings."
	case FieldUniqueTraits:
		user = sheet + "\n\nSuggest 3 to 5 unique traits or quirks that set this " +
			"character apart. Respond with a JSON array of short strings."
	case FieldBackstory:
		user = sheet + "\n\nWrite this character's backstory as 3 to 6 key events. " +
			"Respond with a JSON array of strings, one event each."
	case FieldSystemRules:
		user = sheet + "\n\nWrite behavioral rules for roleplaying this character: " +
			"how they speak, what they never do. Respond with plain text."
	case FieldSynopsis:
		user = sheet + "\n\nWrite a 2-3 sentence synopsis introducing this character. " +
			"Respond with plain text."
	case FieldIntroMessage:
		user = sheet + "\n\nWrite an opening message this character would send to " +
			"start a conversation, in their own voice. Respond with plain text."
	default:
		return "", "", apperrors.NewValidationError(fmt.Sprintf("unknown generation field %q", field))
	}
	return system, user, nil
}

// characterContext flattens the character into prompt context, skipping
// whatever is still empty.
func characterContext(c models.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Character: %s", c.Name)
	if c.Gender != models.GenderUnspecified {
		fmt.Fprintf(&b, "\nGender: %s", c.Gender)
	}
	if c.Age != nil {
		fmt.Fprintf(&b, "\nAge: %d", *c.Age)
	}
	if race := c.RacePreset; race != "" && race != models.RaceOther {
		fmt.Fprintf(&b, "\nRace: %s", race)
	} else if c.Race != "" {
		fmt.Fprintf(&b, "\nRace: %s", c.Race)
	}
	if c.Origins != "" {
		fmt.Fprintf(&b, "\nOrigins: %s", c.Origins)
	}
	if len(c.Personalities) > 0 {
		fmt.Fprintf(&b, "\nPersonality: %s", strings.Join(c.Personalities, ", "))
	}
	if len(c.UniqueTraits) > 0 {
		fmt.Fprintf(&b, "\nUnique traits: %s", strings.Join(c.UniqueTraits, ", "))
	}
	if len(c.Backstory) > 0 {
		fmt.Fprintf(&b, "\nBackstory: %s", strings.Join(c.Backstory, " "))
	}
	if c.Synopsis != "" {
		fmt.Fprintf(&b, "\nSynopsis: %s", c.Synopsis)
	}
	return b.String()
}
