// SPDX-License-Identifier: GPL-2.0-only

package xcodec

import (
	"bytes"
	"testing"
)

func TestEncodeRepeatedSegmentProducesExtractThenBackref(t *testing.T) {
	cache, _ := NewCache(16)
	enc := NewEncoder(cache)

	a := fill('A')
	input := append(append([]byte{}, a...), a...)

	out, err := enc.Encode(input)
	if err != nil {
		t.Fatal(err)
	}

	want := append([]byte{Magic, byte(OpExtract)}, a...)
	want = append(want, Magic, byte(OpBackref), 0)
	if !bytes.Equal(out, want) {
		t.Fatalf("Encode(A||A) = %x, want %x", out, want)
	}
}

func TestEncodeEscapesMagicByte(t *testing.T) {
	cache, _ := NewCache(4)
	enc := NewEncoder(cache)
	out, err := enc.Encode([]byte{Magic})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{Magic, byte(OpEscape)}
	if !bytes.Equal(out, want) {
		t.Fatalf("Encode(Magic) = %x, want %x", out, want)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	input := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog, "), 20)

	c1, _ := NewCache(64)
	c2, _ := NewCache(64)
	out1, err := NewEncoder(c1).Encode(input)
	if err != nil {
		t.Fatal(err)
	}
	out2, err := NewEncoder(c2).Encode(input)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out1, out2) {
		t.Fatal("two encoders with identical empty caches on identical input must emit identical output")
	}
}

func TestEncodeOutOfBandCacheNeverExtracts(t *testing.T) {
	cache, _ := NewOutOfBandCache(16)
	enc := NewEncoder(cache)
	a := fill('Q')
	out, err := enc.Encode(a)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i+1 < len(out); i++ {
		if out[i] == Magic && Opcode(out[i+1]) == OpExtract {
			t.Fatal("encoder must never emit EXTRACT against an out-of-band cache")
		}
	}
	if !bytes.Equal(out, a) {
		t.Fatalf("out-of-band miss should fall through to raw bytes, got %x", out)
	}
}
