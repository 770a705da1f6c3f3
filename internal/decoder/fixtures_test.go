package decoder

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

// entry encodes a Firestore map entry: key in field 1, value message in field 2.
func entry(key string, value []byte) []byte {
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = protowire.AppendString(b, key)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	return protowire.AppendBytes(b, value)
}

func stringValue(s string) []byte {
	b := protowire.AppendTag(nil, 17, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func doubleValue(v float64) []byte {
	b := protowire.AppendTag(nil, 3, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func boolValue(v bool) []byte {
	b := protowire.AppendTag(nil, 1, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func str(key, v string) []byte { return entry(key, stringValue(v)) }
func dbl(key string, v float64) []byte { return entry(key, doubleValue(v)) }
func flag(key string, v bool) []byte { return entry(key, boolValue(v)) }

// padding separates records by more than a record window radius.
var padding = bytes.Repeat([]byte{0}, 2000)

func record(entries ...[]byte) []byte {
	return bytes.Join(entries, nil)
}

// txRecord builds a transaction document with its amount last so every
// field sits before the anchor.
func txRecord(id, name, date string, amount float64, extra ...[]byte) []byte {
	parts := [][]byte{
		[]byte("projects/p/databases/(default)/documents/items/i/transactions/" + id),
		str("transaction_id", id),
		str("original_name", name),
		str("original_date", date),
	}
	parts = append(parts, extra...)
	parts = append(parts, dbl("amount", amount))
	return record(parts...)
}

func accRecord(id, name, mask string, balance float64, extra ...[]byte) []byte {
	parts := [][]byte{
		[]byte("projects/p/databases/(default)/documents/items/i/accounts/" + id),
		str("account_id", id),
		str("name", name),
		str("mask", mask),
	}
	parts = append(parts, extra...)
	parts = append(parts, dbl("current_balance", balance))
	return record(parts...)
}

// table joins records with padding so their windows do not overlap.
func table(records ...[]byte) []byte {
	var b []byte
	for _, r := range records {
		b = append(b, padding...)
		b = append(b, r...)
	}
	return append(b, padding...)
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
