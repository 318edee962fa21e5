// Package export renders characters and stories into portable formats: a
// JSON array that round-trips through import, and a plain-text sheet for
// pasting into prompts or documents.
package export

import (
	"encoding/json"

	"github.com/andreaspandu8619/mastercreator/internal/models"
)

// CharactersJSON renders the whole library as an indented JSON array. The
// output is exactly what the importer accepts, so export-then-import is
// lossless.
func CharactersJSON(chars []models.Character) ([]byte, error) {
	if chars == nil {
		chars = []models.Character{}
	}
	return json.MarshalIndent(chars, "", "  ")
}

// CharacterJSON renders a single character as an indented JSON object. This
// is a one-way convenience export; the importer only takes arrays, so a
// single-object file must be wrapped in [ ] before importing.
func CharacterJSON(c models.Character) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// StoriesJSON renders all story projects as an indented JSON array.
func StoriesJSON(stories []models.StoryProject) ([]byte, error) {
	if stories == nil {
		stories = []models.StoryProject{}
	}
	return json.MarshalIndent(stories, "", "  ")
}

// StoryJSON renders a single story project as an indented JSON object.
func StoryJSON(p models.StoryProject) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
