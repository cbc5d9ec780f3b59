package trie

// A path is a key spelled out one bit per byte, most significant bit first.
// Keys are short (an account key is 21 bytes, a storage key 54), so the
// unpacked form costs little and keeps the split and merge logic plain.

func keyToPath(key []byte) []byte {
	path := make([]byte, 0, len(key)*8)
	for _, b := range key {
		for i := 7; i >= 0; i-- {
			path = append(path, (b>>uint(i))&1)
		}
	}
	return path
}

// pathToKey packs a path back into bytes. len(path) must be a multiple of 8.
func pathToKey(path []byte) []byte {
	key := make([]byte, len(path)/8)
	for i, bit := range path {
		key[i/8] |= bit << uint(7-i%8)
	}
	return key
}

func commonPrefixLen(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func hasPrefix(path, prefix []byte) bool {
	return len(path) >= len(prefix) && commonPrefixLen(path, prefix) == len(prefix)
}

// joinPath returns a ‖ bit ‖ b in a fresh slice.
func joinPath(a []byte, bit byte, b []byte) []byte {
	out := make([]byte, 0, len(a)+1+len(b))
	out = append(out, a...)
	out = append(out, bit)
	return append(out, b...)
}

func clonePath(p []byte) []byte {
	return append([]byte(nil), p...)
}
