package game

// StringHash is a 64-bit FNV-1a hash used for name lookups into the tile-def
// catalog and the building/unit config registries.
type StringHash uint64

const (
	fnv1aOffsetBasis StringHash = 0xcbf29ce484222325
	fnv1aPrime       StringHash = 0x100000001b3
)

// HashString computes the FNV-1a hash of a name.
func HashString(s string) StringHash {
	h := fnv1aOffsetBasis
	for i := 0; i < len(s); i++ {
		h ^= StringHash(s[i])
		h *= fnv1aPrime
	}
	return h
}
