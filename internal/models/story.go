package models

// Alignment describes the tone of a directed relationship.
type Alignment string

const (
	AlignmentAllied       Alignment = "Allied"
	AlignmentFriendly     Alignment = "Friendly"
	AlignmentNeutral      Alignment = "Neutral"
	AlignmentTense        Alignment = "Tense"
	AlignmentHostile      Alignment = "Hostile"
	AlignmentRival        Alignment = "Rival"
	AlignmentDependent    Alignment = "Dependent"
	AlignmentManipulative Alignment = "Manipulative"
)

// Alignments lists every valid alignment in display order.
var Alignments = []Alignment{
	AlignmentAllied,
	AlignmentFriendly,
	AlignmentNeutral,
	AlignmentTense,
	AlignmentHostile,
	AlignmentRival,
	AlignmentDependent,
	AlignmentManipulative,
}

// IsAlignment reports whether v is a recognized alignment.
func IsAlignment(v string) bool {
	for _, a := range Alignments {
		if Alignment(v) == a {
			return true
		}
	}
	return false
}

// RelationType categorizes a directed relationship.
type RelationType string

const (
	RelationRomantic     RelationType = "Romantic"
	RelationPlatonic     RelationType = "Platonic"
	RelationFamilial     RelationType = "Familial"
	RelationProfessional RelationType = "Professional"
	RelationMentorship   RelationType = "Mentorship"
	RelationAdversarial  RelationType = "Adversarial"
	RelationOther        RelationType = "Other"
)

// RelationTypes lists every valid relation type in display order.
var RelationTypes = []RelationType{
	RelationRomantic,
	RelationPlatonic,
	RelationFamilial,
	RelationProfessional,
	RelationMentorship,
	RelationAdversarial,
	RelationOther,
}

// IsRelationType reports whether v is a recognized relation type.
func IsRelationType(v string) bool {
	for _, r := range RelationTypes {
		if RelationType(v) == r {
			return true
		}
	}
	return false
}

// StoryRelationship is a directed edge between two cast members. A->B and
// B->A are distinct edges and may coexist.
type StoryRelationship struct {
	ID              string       `json:"id"`
	FromCharacterID string       `json:"fromCharacterId"`
	ToCharacterID   string       `json:"toCharacterId"`
	Alignment       Alignment    `json:"alignment"`
	RelationType    RelationType `json:"relationType"`
	Details         string       `json:"details"`
	CreatedAt       string       `json:"createdAt"`
}

// BoardNode is a character's placement on the story board. At most one node
// exists per character id.
type BoardNode struct {
	CharacterID string  `json:"characterId"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// StoryProject assembles characters into a cast with a relationship graph.
// Relationships and board nodes may reference ids no longer present in
// CharacterIDs; readers must tolerate dangling references.
type StoryProject struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	CharacterIDs  []string            `json:"characterIds"`
	ImageDataURL  string              `json:"imageDataUrl"`
	Scenario      string              `json:"scenario"`
	PlotPoints    []string            `json:"plotPoints"`
	Relationships []StoryRelationship `json:"relationships"`
	BoardNodes    []BoardNode         `json:"boardNodes"`
	CreatedAt     string              `json:"createdAt"`
	UpdatedAt     string              `json:"updatedAt"`
}

// Node returns the board placement for a character, if any.
func (s *StoryProject) Node(characterID string) (BoardNode, bool) {
	for _, n := range s.BoardNodes {
		if n.CharacterID == characterID {
			return n, true
		}
	}
	return BoardNode{}, false
}

// InCast reports whether the character id is part of the story's cast.
func (s *StoryProject) InCast(characterID string) bool {
	for _, id := range s.CharacterIDs {
		if id == characterID {
			return true
		}
	}
	return false
}
