// Package chunker splits a table's row range into contiguous spans. Each
// span can be handed to its own worker: spans never overlap, and taken in
// order they cover every row exactly once.
package chunker

// DefaultSpanRows is the span size used when the caller does not pick one.
const DefaultSpanRows = 512

// Span is the half-open row range [Start, End).
type Span struct {
	Start int
	End   int
}

// Len returns the number of rows in the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Chunk splits n rows into spans of at most maxRows rows.
//
// If n fits entirely within maxRows, a single span is returned.
// If maxRows ≤ 0 it is treated as unlimited (one span for all rows).
// If n ≤ 0 no spans are returned.
func Chunk(n, maxRows int) []Span {
	if n <= 0 {
		return nil
	}
	if maxRows <= 0 || n <= maxRows {
		return []Span{{Start: 0, End: n}}
	}

	spans := make([]Span, 0, (n+maxRows-1)/maxRows)
	for start := 0; start < n; start += maxRows {
		end := start + maxRows
		if end > n {
			end = n
		}
		spans = append(spans, Span{Start: start, End: end})
	}
	return spans
}
