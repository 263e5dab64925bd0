// Package segment splits legal opinions into structurally delimited,
// typed sections (Level-1 segments).
//
// A Segmenter runs an ordered cascade of strategies: major headings
// ("I. Sachverhalt"), numbered headings ("2.1 Auslegung"), keyword-anchored
// headings from a fixed legal vocabulary, and citation anchors ("§ 2325 BGB").
// The first strategy that finds a boundary wins. When none does, the whole
// document becomes a single unclassified segment and the result is flagged
// as a fallback.
//
// Segments always partition the document text: they are ordered, never
// overlap, and their concatenation equals the input. After boundary
// detection, short segments are merged into their neighbors, adjacent
// segments with overlapping heading vocabulary are combined when most
// segments are still short, and section types are corrected when the body
// text clearly indicates another type.
//
// Example:
//
//	s, err := segment.New(segment.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	result, err := s.Segment(doc)
//	if err != nil {
//		return err
//	}
//	for _, seg := range result.Segments {
//		fmt.Println(seg.ID, seg.SectionType, seg.Heading)
//	}
package segment
