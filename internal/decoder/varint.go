package decoder

// DecodeVarint reads a base-128 varint starting at pos and returns the value
// and the offset just past the last byte consumed.
//
// Decoding is best-effort: a varint running off the end of buf yields the
// bits accumulated so far, and bits beyond 64 are dropped.
func DecodeVarint(buf []byte, pos int) (uint64, int) {
	var v uint64
	var shift uint
	for pos < len(buf) {
		b := buf[pos]
		pos++
		if shift < 64 {
			v |= uint64(b&0x7f) << shift
		}
		if b < 0x80 {
			break
		}
		shift += 7
	}
	return v, pos
}
