package source

// CorrectSourceRange translates a range expressed in an inline document's local
// coordinates into the coordinates of the file containing it.
//
// A nil range yields nil. A nil offset means the document is a top-level file and
// the range is returned unchanged. Only positions on the inline document's first
// line are shifted by the offset column: every later line of an inline document
// starts at column 0 of the container as well.
func CorrectSourceRange(r *Range, offset *LocationOffset) *Range {
	if r == nil {
		return nil
	}
	if offset == nil {
		return r
	}
	file := r.File
	if offset.Filename != "" {
		file = offset.Filename
	}
	return &Range{
		File:  file,
		Start: CorrectPosition(r.Start, offset),
		End:   CorrectPosition(r.End, offset),
	}
}

// CorrectPosition applies the inline-document offset to a single position.
func CorrectPosition(pos Position, offset *LocationOffset) Position {
	if offset == nil {
		return pos
	}
	column := pos.Column
	if pos.Line == 0 {
		column += offset.Column
	}
	return Position{
		Line:   pos.Line + offset.Line,
		Column: column,
	}
}
