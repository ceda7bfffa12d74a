// Package pagetree counts pages by walking the document's real page tree:
// trailer -> /Root catalog -> /Pages -> recursive /Kids, counting
// /Type /Page leaves. Nodes referenced through a compressed (type-2) xref
// entry are resolved through their host object stream.
package pagetree

import (
	"fmt"

	"github.com/benedoc-inc/pdfpages/internal/dict"
	"github.com/benedoc-inc/pdfpages/internal/lexer"
	"github.com/benedoc-inc/pdfpages/internal/object"
	"github.com/benedoc-inc/pdfpages/objstm"
	"github.com/benedoc-inc/pdfpages/types"
	"github.com/benedoc-inc/pdfpages/xref"
)

// DefaultMaxDepth bounds /Kids recursion so a cyclic or pathologically deep
// page tree cannot run away.
const DefaultMaxDepth = 64

// Count walks the page tree reachable from m's trailer and returns the
// number of /Type /Page leaves found.
func Count(buf []byte, m *xref.Map, maxDepth int) (int, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	pagesObjNum, err := rootPagesObjectNumber(buf, m)
	if err != nil {
		return 0, err
	}
	visited := make(map[int]bool)
	return countNode(buf, m, pagesObjNum, 0, maxDepth, visited)
}

// RootCount returns the /Count value recorded directly on the root /Pages
// node, without recursing into /Kids. Cheaper than Count and tolerant of a
// broken or partial /Kids array, at the cost of trusting a value the
// producing application may have gotten wrong.
func RootCount(buf []byte, m *xref.Map) (int, error) {
	pagesObjNum, err := rootPagesObjectNumber(buf, m)
	if err != nil {
		return 0, err
	}
	nodeText, err := resolveDictText(buf, m, pagesObjNum)
	if err != nil {
		return 0, fmt.Errorf("pagetree: resolving root /Pages: %w", err)
	}
	count, ok := dict.Int(nodeText, "/Count")
	if !ok {
		return 0, fmt.Errorf("pagetree: root /Pages has no /Count")
	}
	return count, nil
}

func rootPagesObjectNumber(buf []byte, m *xref.Map) (int, error) {
	if len(m.Trailer) == 0 {
		return 0, fmt.Errorf("pagetree: no trailer available")
	}
	trailerText := lexer.AsLatin1Text(m.Trailer)

	rootRef, ok := dict.RefValue(trailerText, "/Root")
	if !ok {
		return 0, fmt.Errorf("pagetree: trailer has no /Root")
	}
	catalogText, err := resolveDictText(buf, m, rootRef.ObjectNumber)
	if err != nil {
		return 0, fmt.Errorf("pagetree: resolving /Root: %w", err)
	}

	pagesRef, ok := dict.RefValue(catalogText, "/Pages")
	if !ok {
		return 0, fmt.Errorf("pagetree: catalog has no /Pages")
	}
	return pagesRef.ObjectNumber, nil
}

func countNode(buf []byte, m *xref.Map, objNum, depth, maxDepth int, visited map[int]bool) (int, error) {
	if depth > maxDepth {
		return 0, fmt.Errorf("pagetree: exceeded max depth %d", maxDepth)
	}
	if visited[objNum] {
		return 0, nil // cyclic /Kids reference, don't double count
	}
	visited[objNum] = true

	nodeText, err := resolveDictText(buf, m, objNum)
	if err != nil {
		return 0, fmt.Errorf("pagetree: resolving object %d: %w", objNum, err)
	}

	if dict.HasNameValue(nodeText, "/Type", "Page") {
		return 1, nil
	}

	refs, resolvedKids := resolveKids(buf, m, nodeText)
	if !resolvedKids {
		if count, ok := dict.Int(nodeText, "/Count"); ok && count > 0 {
			return count, nil
		}
		return 0, fmt.Errorf("pagetree: node %d has neither resolvable /Kids nor /Count", objNum)
	}

	total := 0
	for _, kid := range refs {
		n, err := countNode(buf, m, kid.ObjectNumber, depth+1, maxDepth, visited)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// resolveKids extracts a node's /Kids as a list of indirect references,
// first trying an inline array ("/Kids [4 0 R 5 0 R]") and, if that yields
// nothing, following /Kids as an indirect reference to a standalone array
// object (fetched via the indirect-object reader or, if compressed, the
// object-stream decoder). resolvedKids is false when /Kids is absent,
// unreachable, or an inline array with no references, letting the caller
// fall back to /Count.
func resolveKids(buf []byte, m *xref.Map, nodeText string) (refs []types.IndirectRef, resolvedKids bool) {
	kidsValue := dict.Value(nodeText, "/Kids")
	if kidsValue != "" {
		if refs := dict.Refs(kidsValue); len(refs) > 0 {
			return refs, true
		}
	}

	ref, ok := dict.RefValue(nodeText, "/Kids")
	if !ok {
		return nil, false
	}
	arrayText, err := resolveArrayText(buf, m, ref.ObjectNumber)
	if err != nil {
		return nil, false
	}
	return dict.Refs(arrayText), true
}

// resolveArrayText fetches the array text of an indirect array object,
// resolving through a compressed object stream when needed.
func resolveArrayText(buf []byte, m *xref.Map, objNum int) (string, error) {
	loc, ok := m.Lookup(objNum)
	if !ok {
		return "", fmt.Errorf("object %d not found in xref map", objNum)
	}
	if !loc.Compressed {
		obj, err := object.Read(buf, loc.Offset)
		if err != nil {
			return "", err
		}
		if obj.Kind != object.KindArray {
			return "", fmt.Errorf("object %d is not an array", objNum)
		}
		return lexer.AsLatin1Text(obj.ArrayText), nil
	}

	streamLoc, ok := m.Lookup(loc.StreamObjNum)
	if !ok || streamLoc.Compressed {
		return "", fmt.Errorf("object stream %d not directly located", loc.StreamObjNum)
	}
	entry, err := objstm.Get(buf, streamLoc.Offset, loc.IndexInStream)
	if err != nil {
		return "", err
	}
	if entry.Kind != object.KindArray {
		return "", fmt.Errorf("compressed object %d is not an array", objNum)
	}
	return lexer.AsLatin1Text(entry.ArrayText), nil
}

// resolveDictText returns the dictionary text for objNum, following a
// compressed (type-2) xref entry through its host ObjStm when needed.
func resolveDictText(buf []byte, m *xref.Map, objNum int) (string, error) {
	loc, ok := m.Lookup(objNum)
	if !ok {
		return "", fmt.Errorf("object %d not found in xref map", objNum)
	}

	if !loc.Compressed {
		obj, err := object.Read(buf, loc.Offset)
		if err != nil {
			return "", err
		}
		if obj.Kind != object.KindDictionary {
			return "", fmt.Errorf("object %d is not a dictionary", objNum)
		}
		return lexer.AsLatin1Text(obj.DictText), nil
	}

	streamLoc, ok := m.Lookup(loc.StreamObjNum)
	if !ok || streamLoc.Compressed {
		return "", fmt.Errorf("object stream %d not directly located", loc.StreamObjNum)
	}
	entry, err := objstm.Get(buf, streamLoc.Offset, loc.IndexInStream)
	if err != nil {
		return "", err
	}
	if entry.Kind != object.KindDictionary {
		return "", fmt.Errorf("compressed object %d is not a dictionary", objNum)
	}
	return lexer.AsLatin1Text(entry.DictText), nil
}
