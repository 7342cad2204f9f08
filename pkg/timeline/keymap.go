package timeline

import "sort"

// KeyMap maps the white-key MIDI notes of three octaves onto the
// letter/number rows used by the in-game piano.
var KeyMap = map[uint8]string{
	72: "1",
	74: "2",
	76: "3",
	77: "4",
	79: "5",
	81: "6",
	83: "7",
	60: "q",
	62: "w",
	64: "e",
	65: "f",
	67: "t",
	69: "y",
	71: "u",
	48: "a",
	50: "s",
	52: "d",
	53: "f",
	55: "g",
	57: "h",
	59: "j",
}

// WhiteKeys is KeyMap's key set, sorted ascending.
var WhiteKeys = sortedKeys(KeyMap)

func sortedKeys(m map[uint8]string) []uint8 {
	keys := make([]uint8, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// NearestWhiteKey returns the mapped note closest to pitch. Pitches
// outside the mapped range clamp to the lowest or highest key; an exact
// tie between two equidistant keys resolves to the smaller one.
func NearestWhiteKey(pitch uint8) uint8 {
	if pitch < WhiteKeys[0] {
		return WhiteKeys[0]
	}
	if pitch > WhiteKeys[len(WhiteKeys)-1] {
		return WhiteKeys[len(WhiteKeys)-1]
	}
	closest := WhiteKeys[0]
	minDiff := absDiff(pitch, closest)
	for _, w := range WhiteKeys {
		diff := absDiff(pitch, w)
		if diff < minDiff || (diff == minDiff && w < closest) {
			closest = w
			minDiff = diff
		}
	}
	return closest
}

// KeyFor returns the key symbol for pitch, resolving unmapped pitches
// through NearestWhiteKey. The second return value is false only when
// no key can be found, which cannot happen with the fixed KeyMap.
func KeyFor(pitch uint8) (string, bool) {
	if key, ok := KeyMap[pitch]; ok {
		return key, true
	}
	key, ok := KeyMap[NearestWhiteKey(pitch)]
	return key, ok
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
