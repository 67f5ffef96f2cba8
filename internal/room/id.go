package room

import "crypto/rand"

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const idLength = 6

// idRejectCeiling is the smallest discarded byte value; bytes below it map
// onto idAlphabet with no bias: 256 is not a multiple of len(idAlphabet), so bytes at or above
// this ceiling are discarded and redrawn rather than reduced mod
// len(idAlphabet), which would make the low few symbols slightly more
// likely to appear.
const idRejectCeiling = 256 - 256%len(idAlphabet)

// ValidID reports whether s has the shape of a room id: exactly idLength
// characters, each drawn from idAlphabet.
func ValidID(s string) bool {
	if len(s) != idLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlphabetByte(s[i]) {
			return false
		}
	}
	return true
}

func isAlphabetByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// genRoomID returns a uniformly random 6-character id over [a-z0-9]. Bytes
// landing at or above idRejectCeiling are discarded and redrawn so the
// result is actually uniform over idAlphabet, not just close to it.
func genRoomID() (string, error) {
	id := make([]byte, idLength)
	buf := make([]byte, idLength)
	filled := 0
	for filled < idLength {
		if _, err := rand.Read(buf[:idLength-filled]); err != nil {
			return "", err
		}
		for _, b := range buf[:idLength-filled] {
			if b >= idRejectCeiling {
				continue
			}
			id[filled] = idAlphabet[int(b)%len(idAlphabet)]
			filled++
		}
	}
	return string(id), nil
}
