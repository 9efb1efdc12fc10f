package dispatch

// thresholdBase sits above the game's reserved low-value range so generated
// thresholds never collide with hand-assigned ones.
const thresholdBase = 32767

// thresholdSpan bounds the hash-derived offset.
const thresholdSpan = 10_000_000

// legacyHash reproduces the historical character-weighted running sum used
// for identifier stability. Arithmetic must wrap at 32 bits with sign, so
// previously generated thresholds stay bit-compatible; int32 multiplication
// and addition in Go wrap exactly that way.
func legacyHash(s string) int32 {
	var h int32
	for _, c := range []byte(s) {
		h = h<<5 - h + int32(c)
	}
	return h
}

// Threshold computes the stable threshold for an artifact's folder/id pair.
// It is a pure function of its input: identical across runs and processes,
// with no persisted counters.
func Threshold(folder, id string) int {
	h := legacyHash(folder + "/" + id)
	offset := int(h) % thresholdSpan
	if offset < 0 {
		offset += thresholdSpan
	}
	return thresholdBase + offset
}
