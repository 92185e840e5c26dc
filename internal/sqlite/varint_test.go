package sqlite

import (
	"errors"
	"testing"
)

func TestDecodeVarintRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want uint64
		n    int
	}{
		{"zero", []byte{0x00}, 0, 1},
		{"one byte max", []byte{0x7f}, 0x7f, 1},
		{"two byte", []byte{0x81, 0x00}, 0x80, 2},
		{"two byte max", []byte{0xff, 0x7f}, 0x3fff, 2},
		{"nine byte full width", append([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 0xff), 0xffffffffffffffff, 9},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, n, err := DecodeVarint(c.buf)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want || n != c.n {
				t.Fatalf("DecodeVarint(%v) = (%d, %d), want (%d, %d)", c.buf, got, n, c.want, c.n)
			}
		})
	}
}

func TestDecodeVarintTruncated(t *testing.T) {
	_, _, err := DecodeVarint([]byte{0x81})
	if !errors.Is(err, ErrTruncatedVarint) {
		t.Fatalf("expected ErrTruncatedVarint, got %v", err)
	}
	_, _, err = DecodeVarint(nil)
	if !errors.Is(err, ErrTruncatedVarint) {
		t.Fatalf("expected ErrTruncatedVarint on empty buf, got %v", err)
	}
}

func TestDecodeVarintNinthByteFullWidth(t *testing.T) {
	// ninth byte contributes all 8 bits, not just the low 7
	buf := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0xff}
	_, n, err := DecodeVarint(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 9 {
		t.Fatalf("expected 9 bytes consumed, got %d", n)
	}
}
