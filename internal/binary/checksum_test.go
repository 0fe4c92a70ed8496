package binary

import (
	"testing"
)

func TestLookup3Checksum(t *testing.T) {
	// Reference values from the lookup3.c self-test driver.
	tests := []struct {
		name  string
		input []byte
		want  uint32
	}{
		{"empty", []byte{}, 0xdeadbeef},
		{"four score", []byte("Four score and seven years ago"), 0x17770551},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Lookup3Checksum(tt.input); got != tt.want {
				t.Errorf("got 0x%08x, want 0x%08x", got, tt.want)
			}
		})
	}
}

func TestLookup3ChecksumLengthVariations(t *testing.T) {
	checksums := make(map[uint32]int)
	for length := 0; length <= 24; length++ {
		data := make([]byte, length)
		for i := range data {
			data[i] = byte(i)
		}
		checksums[Lookup3Checksum(data)] = length
	}
	if len(checksums) != 25 {
		t.Errorf("expected 25 unique checksums for lengths 0-24, got %d", len(checksums))
	}
}

func TestFletcher32(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  uint32
	}{
		{"empty", nil, 0},
		// Words are big-endian: 0x0102, then 0x0304.
		{"two words", []byte{0x01, 0x02, 0x03, 0x04}, (0x0102+0x0102+0x0304)<<16 | (0x0102 + 0x0304)},
		// A trailing odd byte is the high half of a final word.
		{"odd tail", []byte{0x01}, 0x0100<<16 | 0x0100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fletcher32(tt.input); got != tt.want {
				t.Errorf("got 0x%08x, want 0x%08x", got, tt.want)
			}
		})
	}
}

func TestFletcher32DetectsCorruption(t *testing.T) {
	// Long input exercises the 360-word folding.
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 251)
	}
	sum := Fletcher32(data)
	data[100] ^= 0x01
	if Fletcher32(data) == sum {
		t.Error("checksum did not change after corrupting a byte")
	}
}
