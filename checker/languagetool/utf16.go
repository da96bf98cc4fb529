package languagetool

import (
	"unicode/utf8"

	"fortio.org/safecast"
)

// unitIndex maps UTF-16 code unit offsets of a string to rune offsets.
type unitIndex struct {
	// starts[i] is the UTF-16 offset of rune i; the final entry is the total.
	starts []int
}

func newUnitIndex(text string) unitIndex {
	starts := make([]int, 0, utf8.RuneCountInString(text)+1)
	units := 0
	for _, r := range text {
		starts = append(starts, units)
		units += utf16Len(r)
	}
	starts = append(starts, units)
	return unitIndex{starts: starts}
}

func utf16Len(r rune) int {
	if r >= 0x10000 && r <= utf8.MaxRune {
		return 2
	}
	return 1
}

// runeOffset converts a UTF-16 offset to a rune offset. Offsets that point
// into the middle of a surrogate pair resolve to the pair's rune. Offsets
// past the end clamp to the rune count.
func (u unitIndex) runeOffset(units int) int {
	if units <= 0 {
		return 0
	}
	lo, hi := 0, len(u.starts)-1
	if units >= u.starts[hi] {
		return hi
	}
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if u.starts[mid] <= units {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// span converts a UTF-16 (offset, length) pair to runes.
func (u unitIndex) span(offset, length int) (int, int) {
	start := u.runeOffset(offset)
	end := u.runeOffset(offset + max(length, 0))
	if end < start {
		end = start
	}
	return start, end - start
}

// units decodes a JSON number LanguageTool sent as a UTF-16 count.
func units(v int64) int {
	n, err := safecast.Conv[int](v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
