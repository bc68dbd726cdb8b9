package device

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint derives a stable identifier from a classified profile and the
// raw descriptor it came from. Fields are length-prefixed before hashing so
// adjacent fields cannot shuffle bytes across a boundary and collide. Change
// events carry this fingerprint so a returning device can be correlated
// without comparing raw descriptor strings.
func Fingerprint(p Profile, raw string) string {
	h, _ := blake2b.New256(nil)
	for _, field := range []string{p.Type, p.Browser, p.OS, raw} {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(field)))
		h.Write(lenBuf[:])
		h.Write([]byte(field))
	}
	return hex.EncodeToString(h.Sum(nil))
}
