package board

import (
	"fmt"
	"math"

	"github.com/andreaspandu8619/mastercreator/internal/models"
)

// Card dimensions used when rendering edges between node cards.
const (
	CardWidth  = 176.0
	CardHeight = 72.0
)

// Panner tracks the board-pan drag: a view-space translation applied
// uniformly to all nodes and edges. It never touches node coordinates.
type Panner struct {
	active bool
	last   Point
	offset Point
}

// Offset returns the accumulated view-space translation.
func (p *Panner) Offset() Point { return p.offset }

// Active reports whether a pan drag is in progress.
func (p *Panner) Active() bool { return p.active }

// Start begins a pan drag from a view-space position.
func (p *Panner) Start(view Point) {
	p.active = true
	p.last = view
}

// Move accumulates the drag delta into the offset.
func (p *Panner) Move(view Point) {
	if !p.active {
		return
	}
	p.offset.X += view.X - p.last.X
	p.offset.Y += view.Y - p.last.Y
	p.last = view
}

// End finishes the drag, keeping the accumulated offset.
func (p *Panner) End() {
	p.active = false
}

// PlaceNode sets a character's board position, upserting when the character
// had no prior placement.
func PlaceNode(s *models.StoryProject, characterID string, at Point) {
	for i, n := range s.BoardNodes {
		if n.CharacterID == characterID {
			s.BoardNodes[i].X = at.X
			s.BoardNodes[i].Y = at.Y
			return
		}
	}
	s.BoardNodes = append(s.BoardNodes, models.BoardNode{
		CharacterID: characterID,
		X:           at.X,
		Y:           at.Y,
	})
}

// DetachCharacter removes a character's board placement and every
// relationship touching it, in both directions. Cast membership is left
// untouched; the character record itself is never deleted here. Detaching a
// character with no placement still strips its relationships.
func DetachCharacter(s *models.StoryProject, characterID string) (nodeRemoved bool, edgesRemoved int) {
	nodes := s.BoardNodes[:0]
	for _, n := range s.BoardNodes {
		if n.CharacterID == characterID {
			nodeRemoved = true
			continue
		}
		nodes = append(nodes, n)
	}
	s.BoardNodes = nodes

	rels := s.Relationships[:0]
	for _, r := range s.Relationships {
		if r.FromCharacterID == characterID || r.ToCharacterID == characterID {
			edgesRemoved++
			continue
		}
		rels = append(rels, r)
	}
	s.Relationships = rels
	return nodeRemoved, edgesRemoved
}

// EdgePath renders the curve between two node cards as an SVG path: a cubic
// from the source card's right-middle to the target card's left-middle, with
// the pan offset applied uniformly. It is a pure function of the two
// positions; selection highlighting is a rendering concern layered on top.
func EdgePath(from, to models.BoardNode, pan Point) string {
	sx := from.X + CardWidth + pan.X
	sy := from.Y + CardHeight/2 + pan.Y
	tx := to.X + pan.X
	ty := to.Y + CardHeight/2 + pan.Y

	bend := math.Abs(tx-sx) / 2
	if bend < 40 {
		bend = 40
	}
	return fmt.Sprintf("M %.1f %.1f C %.1f %.1f, %.1f %.1f, %.1f %.1f",
		sx, sy, sx+bend, sy, tx-bend, ty, tx, ty)
}
