package board

import "fmt"

// Position is a cell on the grid. Row 0 is the top side in the authoritative
// frame; the first-seated player is pinned to the bottom side at match start.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d", p.Row, p.Col)
}

// ParsePosition parses the "row,col" wire form produced by Position.String.
func ParsePosition(s string) (Position, error) {
	var p Position
	if _, err := fmt.Sscanf(s, "%d,%d", &p.Row, &p.Col); err != nil {
		return Position{}, fmt.Errorf("bad position %q: %w", s, err)
	}
	return p, nil
}

// Direction is a one-step move in the acting player's own frame: forward
// points toward the opponent's side.
type Direction string

const (
	DirForward  Direction = "forward"
	DirBackward Direction = "backward"
	DirLeft     Direction = "left"
	DirRight    Direction = "right"
)

// InBounds reports whether p lies on a width×height board.
func InBounds(width, height int, p Position) bool {
	return p.Row >= 0 && p.Row < height && p.Col >= 0 && p.Col < width
}

// Taxi returns the taxicab distance between two cells.
func Taxi(a, b Position) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ToViewerPos transforms an authoritative position into the viewer's
// "I am always at the bottom" frame. Bottom-side viewers see positions
// unchanged; top-side viewers see the row axis flipped.
func ToViewerPos(height int, viewerIsBottom bool, p Position) Position {
	if viewerIsBottom {
		return p
	}
	return Position{Row: height - 1 - p.Row, Col: p.Col}
}

// FromViewerPos transforms a viewer-frame position back into the
// authoritative frame. The transform is its own inverse, so this is the same
// operation as ToViewerPos; the separate name keeps read and write call
// sites honest.
func FromViewerPos(height int, viewerIsBottom bool, p Position) Position {
	return ToViewerPos(height, viewerIsBottom, p)
}

// Step returns the cell one step from p in the given direction, in the
// acting player's frame. For the bottom-side player forward decreases the
// row; for the top-side player it increases it. The result may be out of
// bounds; callers decide whether that fizzles.
func Step(p Position, dir Direction, actorIsBottom bool) Position {
	forward := -1
	if !actorIsBottom {
		forward = 1
	}
	switch dir {
	case DirForward:
		return Position{Row: p.Row + forward, Col: p.Col}
	case DirBackward:
		return Position{Row: p.Row - forward, Col: p.Col}
	case DirLeft:
		return Position{Row: p.Row, Col: p.Col - 1}
	case DirRight:
		return Position{Row: p.Row, Col: p.Col + 1}
	}
	return p
}

// LegalInstallPositions enumerates the free cells a ritual may be placed on.
// Occupied cells are excluded; if maxRange > 0, cells beyond that taxi
// distance from the acting wizard are excluded as well.
func LegalInstallPositions(width, height int, from Position, maxRange int, occupied func(Position) bool) []Position {
	var out []Position
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			p := Position{Row: row, Col: col}
			if occupied != nil && occupied(p) {
				continue
			}
			if maxRange > 0 && Taxi(from, p) > maxRange {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// WithinRange reports whether target is within maxRange taxi distance of
// from. Used for near-enemy targeting; in a two-player match this yields
// zero or one candidate.
func WithinRange(from, target Position, maxRange int) bool {
	return Taxi(from, target) <= maxRange
}
