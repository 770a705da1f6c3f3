package decoder

import (
	"bytes"
	"math"
	"unicode"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Firestore Value encodings: string_value is field 17, double_value field 3,
// boolean_value field 1.
var (
	stringTag = protowire.AppendTag(nil, 17, protowire.BytesType)
	doubleTag = byte(protowire.EncodeTag(3, protowire.Fixed64Type))
	boolTag   = byte(protowire.EncodeTag(1, protowire.VarintType))
)

// ExtractString finds the first occurrence of field in buf and returns the
// first plausible string value encoded shortly after it.
func (l Limits) ExtractString(buf, field []byte) (string, bool) {
	idx := bytes.Index(buf, field)
	if idx < 0 {
		return "", false
	}
	start := idx + len(field)
	end := min(start+l.StringWindow, len(buf))
	for i := start; i+2 < end; i++ {
		if buf[i] != stringTag[0] || buf[i+1] != stringTag[1] {
			continue
		}
		n := int(buf[i+2])
		if n == 0 || n >= l.MaxStringLength || i+3+n > len(buf) {
			continue
		}
		s := buf[i+3 : i+3+n]
		if !utf8.Valid(s) || !printable(s) {
			continue
		}
		return string(s), true
	}
	return "", false
}

// ExtractDouble scans forward from start for a double tag and returns the
// first little-endian float64 within MaxMagnitude, rounded to two places.
// Only the tag must lie inside the window; its payload may run past it.
func (l Limits) ExtractDouble(buf []byte, start int) (float64, bool) {
	if start < 0 || start >= len(buf) {
		return 0, false
	}
	end := min(start+l.DoubleWindow, len(buf))
	for i := start; i < end; i++ {
		if buf[i] != doubleTag {
			continue
		}
		bits, n := protowire.ConsumeFixed64(buf[i+1:])
		if n < 0 {
			return 0, false
		}
		v := math.Float64frombits(bits)
		if !(math.Abs(v) < l.MaxMagnitude) {
			continue
		}
		return math.Round(v*100) / 100, true
	}
	return 0, false
}

// ExtractBool finds the first occurrence of field and reports the byte that
// follows the first boolean tag after it.
func (l Limits) ExtractBool(buf, field []byte) (bool, bool) {
	idx := bytes.Index(buf, field)
	if idx < 0 {
		return false, false
	}
	start := idx + len(field)
	end := min(start+l.BoolWindow, len(buf))
	for i := start; i+1 < end; i++ {
		if buf[i] == boolTag {
			return buf[i+1] != 0, true
		}
	}
	return false, false
}

// ExtractString calls DefaultLimits().ExtractString.
func ExtractString(buf, field []byte) (string, bool) {
	return DefaultLimits().ExtractString(buf, field)
}

// ExtractDouble calls DefaultLimits().ExtractDouble.
func ExtractDouble(buf []byte, start int) (float64, bool) {
	return DefaultLimits().ExtractDouble(buf, start)
}

// ExtractBool calls DefaultLimits().ExtractBool.
func ExtractBool(buf, field []byte) (bool, bool) {
	return DefaultLimits().ExtractBool(buf, field)
}

func printable(s []byte) bool {
	for len(s) > 0 {
		r, size := utf8.DecodeRune(s)
		if !unicode.IsPrint(r) {
			return false
		}
		s = s[size:]
	}
	return true
}
