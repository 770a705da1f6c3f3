package decoder

import (
	"math"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestDecodeVarint(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 16384, 1 << 35, math.MaxUint64}
	for _, v := range values {
		buf := protowire.AppendVarint([]byte{0xff}, v)
		got, next := DecodeVarint(buf, 1)
		if got != v {
			t.Errorf("DecodeVarint(%v) = %d, want %d", buf, got, v)
		}
		if next != len(buf) {
			t.Errorf("DecodeVarint(%v) offset = %d, want %d", buf, next, len(buf))
		}
	}
}

func TestDecodeVarint_Truncated(t *testing.T) {
	tests := []struct {
		name     string
		buf      []byte
		pos      int
		wantVal  uint64
		wantNext int
	}{
		{"empty", nil, 0, 0, 0},
		{"pos at end", []byte{0x01}, 1, 0, 1},
		{"no terminator", []byte{0x81, 0x80}, 0, 1, 2},
		{"stops at first clear high bit", []byte{0xac, 0x02, 0x05}, 0, 300, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, next := DecodeVarint(tt.buf, tt.pos)
			if v != tt.wantVal || next != tt.wantNext {
				t.Errorf("DecodeVarint() = (%d, %d), want (%d, %d)", v, next, tt.wantVal, tt.wantNext)
			}
		})
	}
}

func TestDecodeVarint_Overlong(t *testing.T) {
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}
	_, next := DecodeVarint(buf, 0)
	if next != len(buf) {
		t.Errorf("offset = %d, want %d", next, len(buf))
	}
}
