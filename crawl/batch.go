package crawl

// Range is a half-open index range [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of indexes in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Slice returns the part of s covered by r.
func Slice[T any](s []T, r Range) []T {
	return s[r.Start:r.End]
}

// Split partitions [0, n) into consecutive ranges of at most size items.
// It returns ceil(n/size) ranges whose lengths differ by at most one, a
// single range when n <= size, and nothing when n is zero. A size below
// one is treated as one.
func Split(n, size int) []Range {
	if n <= 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}
	if n <= size {
		return []Range{{Start: 0, End: n}}
	}

	count := (n + size - 1) / size
	base, extra := n/count, n%count
	ranges := make([]Range, 0, count)
	start := 0
	for i := 0; i < count; i++ {
		end := start + base
		if i < extra {
			end++
		}
		ranges = append(ranges, Range{Start: start, End: end})
		start = end
	}
	return ranges
}

// Concat flattens parts into one slice, preserving order.
func Concat[T any](parts [][]T) []T {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]T, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
