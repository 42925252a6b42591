// Package selector derives per-conversation turn counts for range-mode
// simulations. The same conversation id always maps to the same count, so a
// batch can be re-run and produce conversations of identical shape.
package selector

// TurnsInRange maps id deterministically onto [min, max]. The hash is a
// 32-bit shift-and-subtract accumulation over the characters of id.
func TurnsInRange(id string, min, max int) int {
	if min >= max {
		return min
	}

	var h int32
	for _, ch := range id {
		h = h<<5 - h + int32(ch)
	}

	v := int(h)
	if v < 0 {
		v = -v
	}

	span := max - min + 1
	return min + v%span
}
