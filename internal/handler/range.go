package handler

import (
	"strconv"
	"strings"
)

// byteRange is a resolved, inclusive-exclusive window [start, start+length).
type byteRange struct {
	start  uint64
	length uint64
}

// parseRange resolves a single "bytes=" range against size.
//
// It returns ok=false when the header is absent or should be ignored
// (multiple ranges, other units), in which case the full body is served, and
// satisfiable=false when the range is syntactically valid but lies outside
// the target.
func parseRange(header string, size uint64) (r byteRange, ok, satisfiable bool) {
	rng, found := strings.CutPrefix(strings.TrimSpace(header), "bytes=")
	if !found || strings.Contains(rng, ",") {
		return byteRange{}, false, true
	}
	first, last, found := strings.Cut(strings.TrimSpace(rng), "-")
	if !found {
		return byteRange{}, false, true
	}

	if first == "" {
		// Suffix range: the final n bytes.
		n, err := strconv.ParseUint(last, 10, 64)
		if err != nil {
			return byteRange{}, false, true
		}
		if n == 0 || size == 0 {
			return byteRange{}, true, false
		}
		n = min(n, size)
		return byteRange{start: size - n, length: n}, true, true
	}

	start, err := strconv.ParseUint(first, 10, 64)
	if err != nil {
		return byteRange{}, false, true
	}
	if start >= size {
		return byteRange{}, true, false
	}
	end := size - 1
	if last != "" {
		e, err := strconv.ParseUint(last, 10, 64)
		if err != nil || e < start {
			return byteRange{}, false, true
		}
		end = min(e, size-1)
	}
	return byteRange{start: start, length: end - start + 1}, true, true
}

func (r byteRange) contentRange(size uint64) string {
	return "bytes " + strconv.FormatUint(r.start, 10) + "-" +
		strconv.FormatUint(r.start+r.length-1, 10) + "/" + strconv.FormatUint(size, 10)
}
