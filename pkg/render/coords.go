package render

import "github.com/matzehuels/sketchlift/pkg/design"

// CoordMode says how a node's stored (x, y) is interpreted.
type CoordMode int

// Coordinate modes.
const (
	// CoordRelative: (x, y) is local to the immediate parent.
	CoordRelative CoordMode = iota
	// CoordAbsolute: (x, y) is canvas-absolute.
	CoordAbsolute
)

func (m CoordMode) String() string {
	if m == CoordAbsolute {
		return "absolute"
	}
	return "relative"
}

// fitTolerance is the slack, in canvas units, allowed at each edge before
// a placement counts as out of bounds.
const fitTolerance = 1.0

// frameBox is the resolved geometry of a parent frame: its canvas-absolute
// origin and its size.
type frameBox struct {
	AbsX, AbsY float64
	W, H       float64
}

// fitScore rates a candidate interpretation of a child box inside a
// parent of the given size. One point each for: left edge not negative,
// top edge not negative, right edge within the parent, bottom edge within
// the parent (all with tolerance). Range 0-4; a higher score approximates
// a higher likelihood that the interpretation is the intended one, since
// negative or out-of-bounds placement signals the wrong convention.
func fitScore(x, y, w, h, parentW, parentH float64) int {
	score := 0
	if x >= -fitTolerance {
		score++
	}
	if y >= -fitTolerance {
		score++
	}
	if x+w <= parentW+fitTolerance {
		score++
	}
	if y+h <= parentH+fitTolerance {
		score++
	}
	return score
}

// scorePair rates both interpretations of one node against its parent.
func scorePair(n *design.Node, p frameBox) (rel, abs int) {
	rel = fitScore(n.X, n.Y, n.Width, n.Height, p.W, p.H)
	abs = fitScore(n.X-p.AbsX, n.Y-p.AbsY, n.Width, n.Height, p.W, p.H)
	return rel, abs
}

// preferredMode computes a frame's aggregate coordinate mode by summing
// fit scores across all direct children for each interpretation. The
// winning mode becomes the tie-break default for the per-node decision —
// it never overrides a node whose own scores are unambiguous. When the
// aggregate itself ties, absolute is preferred iff the parent's own
// absolute origin is non-zero: documents generated in absolute convention
// usually keep using it inside offset frames, while an origin frame makes
// the two readings identical anyway.
func preferredMode(children []*design.Node, p frameBox) CoordMode {
	relSum, absSum := 0, 0
	for _, c := range children {
		rel, abs := scorePair(c, p)
		relSum += rel
		absSum += abs
	}
	switch {
	case relSum > absSum:
		return CoordRelative
	case absSum > relSum:
		return CoordAbsolute
	}
	if p.AbsX != 0 || p.AbsY != 0 {
		return CoordAbsolute
	}
	return CoordRelative
}

// resolveLocal decides the coordinate mode for a single node and returns
// its position local to the parent. Whichever interpretation scores
// strictly higher wins even when neither fully fits; only an exact tie
// falls back to the frame's preferred mode.
func resolveLocal(n *design.Node, p frameBox, preferred CoordMode) (x, y float64) {
	rel, abs := scorePair(n, p)
	mode := preferred
	switch {
	case rel > abs:
		mode = CoordRelative
	case abs > rel:
		mode = CoordAbsolute
	}
	if mode == CoordAbsolute {
		return n.X - p.AbsX, n.Y - p.AbsY
	}
	return n.X, n.Y
}
