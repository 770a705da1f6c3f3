package decoder

// Window is a slice of a table file around an anchor.
type Window struct {
	// Start is the offset of Bytes[0] in the source buffer.
	Start int
	Bytes []byte
}

// Carve returns the bytes within radius of offset, clamped to buf.
func Carve(buf []byte, offset, radius int) Window {
	start := max(offset-radius, 0)
	end := min(max(offset+radius, 0), len(buf))
	if start > end {
		start = end
	}
	return Window{Start: start, Bytes: buf[start:end]}
}
