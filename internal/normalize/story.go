package normalize

import (
	"strings"

	"github.com/andreaspandu8619/mastercreator/internal/models"
)

// Story coerces raw into a canonical story project. The same philosophy as
// Character applies: ok=false only for a non-object value or a missing
// string title; everything else is defaulted. Relationships and board nodes
// are kept even when they reference ids outside the cast.
func Story(raw any) (*models.StoryProject, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	title, ok := m["title"].(string)
	if !ok {
		return nil, false
	}
	title = Collapse(title)
	if title == "" {
		return nil, false
	}

	s := &models.StoryProject{
		Title:        title,
		CharacterIDs: uniqueIDs(StringList(m["characterIds"])),
		ImageDataURL: dataURL(m["imageDataUrl"]),
		Scenario:     Field(m["scenario"]),
		PlotPoints:   StringList(m["plotPoints"]),
	}

	s.Relationships = relationships(m["relationships"])
	s.BoardNodes = boardNodes(m["boardNodes"])

	s.ID = ID(m["id"])
	s.CreatedAt = Timestamp(m["createdAt"])
	s.UpdatedAt = Timestamp(m["updatedAt"])
	return s, true
}

// Relationship coerces a single relationship value. Unrecognized enum values
// fall back to Neutral / Other rather than rejecting; ok=false only for a
// non-object value or missing endpoint ids.
func Relationship(raw any) (*models.StoryRelationship, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}
	from := trimmed(m["fromCharacterId"])
	to := trimmed(m["toCharacterId"])
	if from == "" || to == "" {
		return nil, false
	}

	r := &models.StoryRelationship{
		FromCharacterID: from,
		ToCharacterID:   to,
		Alignment:       models.AlignmentNeutral,
		RelationType:    models.RelationOther,
		Details:         Field(m["details"]),
	}
	if a := Field(m["alignment"]); models.IsAlignment(a) {
		r.Alignment = models.Alignment(a)
	}
	if t := Field(m["relationType"]); models.IsRelationType(t) {
		r.RelationType = models.RelationType(t)
	}
	r.ID = ID(m["id"])
	r.CreatedAt = Timestamp(m["createdAt"])
	return r, true
}

func relationships(v any) []models.StoryRelationship {
	out := []models.StoryRelationship{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	for _, el := range list {
		if r, ok := Relationship(el); ok {
			out = append(out, *r)
		}
	}
	return out
}

// boardNodes keeps at most one node per character id; a later entry for the
// same id overwrites the earlier one in place.
func boardNodes(v any) []models.BoardNode {
	out := []models.BoardNode{}
	list, ok := v.([]any)
	if !ok {
		return out
	}
	index := map[string]int{}
	for _, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		id := trimmed(m["characterId"])
		if id == "" {
			continue
		}
		n := models.BoardNode{
			CharacterID: id,
			X:           number(m["x"]),
			Y:           number(m["y"]),
		}
		if at, seen := index[id]; seen {
			out[at] = n
			continue
		}
		index[id] = len(out)
		out = append(out, n)
	}
	return out
}

func uniqueIDs(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, id := range in {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// dataURL trims but does not collapse; image data URLs are opaque.
func dataURL(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func trimmed(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func number(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	default:
		return 0
	}
}
