// Package hexutil provides lookup-table hex encoding for the
// fingerprint hot path. Uses precomputed tables instead of
// fmt.Sprintf so rendering a hash never allocates more than the
// result string.
package hexutil

// HexLower is the lowercase hex alphabet.
const HexLower = "0123456789abcdef"

// ByteHex contains the two-character lowercase hex rendering of every
// byte value.
var ByteHex [256]string

func init() {
	for i := 0; i < 256; i++ {
		ByteHex[i] = string([]byte{HexLower[i>>4], HexLower[i&0x0F]})
	}
}

// EncodeUint64 renders v as a 16-character lowercase hex string,
// zero-padded, most significant byte first.
func EncodeUint64(v uint64) string {
	var buf [16]byte
	putUint64(buf[:], v)
	return string(buf[:])
}

// EncodeUint64Pair renders hi then lo as one 32-character lowercase
// hex string. Fingerprints use this to render 128-bit hashes.
func EncodeUint64Pair(hi, lo uint64) string {
	var buf [32]byte
	putUint64(buf[:16], hi)
	putUint64(buf[16:], lo)
	return string(buf[:])
}

// Encode renders b as a lowercase hex string.
func Encode(b []byte) string {
	buf := make([]byte, len(b)*2)
	for i, c := range b {
		buf[i*2] = HexLower[c>>4]
		buf[i*2+1] = HexLower[c&0x0F]
	}
	return string(buf)
}

func putUint64(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b := byte(v >> (56 - 8*i))
		dst[i*2] = HexLower[b>>4]
		dst[i*2+1] = HexLower[b&0x0F]
	}
}
