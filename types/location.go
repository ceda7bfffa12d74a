package types

// IndirectRef is the value form of a PDF indirect reference "N G R".
type IndirectRef struct {
	ObjectNumber int
	Generation   int
}

// Location is where an object lives once the cross-reference map has been
// built: either a direct byte offset, or a slot inside a compressed object
// stream. Exactly one of the two forms applies, selected by Compressed.
type Location struct {
	Compressed bool

	// Direct form.
	Offset int64
	Gen    int

	// Compressed form (PDF 1.5+ object streams).
	StreamObjNum  int
	IndexInStream int
}
