package source

import "fmt"

// Position is a zero-based line/column location inside a file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Less reports whether p comes strictly before other.
func (p Position) Less(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

// Range is a span of a physical file. Ranges handed out by documents are always
// expressed in the coordinate space of the file on disk.
type Range struct {
	File  string   `json:"file"`
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether pos lies within the range (end exclusive).
func (r Range) Contains(pos Position) bool {
	return !pos.Less(r.Start) && pos.Less(r.End)
}

func (r Range) String() string {
	return fmt.Sprintf("%s:%s-%s", r.File, r.Start, r.End)
}

// LocationOffset describes where an inline document begins inside its container.
type LocationOffset struct {
	Line     int
	Column   int
	Filename string // container file; empty keeps the range's own file
}
