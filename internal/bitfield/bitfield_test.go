package bitfield

import (
	"fmt"
	"testing"
)

type sampleFlags struct {
	A bool   `bitfield:",1"`
	B bool   `bitfield:",1"`
	C uint32 `bitfield:",6"`
}

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []sampleFlags{
		{A: false, B: false, C: 0},
		{A: true, B: false, C: 0},
		{A: false, B: true, C: 0},
		{A: true, B: true, C: 0x3F},
		{A: true, B: false, C: 0x15},
	}

	for i, orig := range cases {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			packed, err := Pack(orig, &Config{NumBits: 8})
			if err != nil {
				t.Fatalf("Pack() error = %v", err)
			}

			var got sampleFlags
			if err := Unpack(packed, &got); err != nil {
				t.Fatalf("Unpack() error = %v", err)
			}
			if got != orig {
				t.Errorf("RoundTrip = %+v, want %+v", got, orig)
			}
		})
	}
}

func TestPackOverflow(t *testing.T) {
	_, err := Pack(sampleFlags{C: 0x40}, &Config{NumBits: 8})
	if err == nil {
		t.Fatal("Pack() expected error for out-of-range field, got nil")
	}
}

func TestPackExceedsNumBits(t *testing.T) {
	type wide struct {
		X uint32 `bitfield:",10"`
	}
	_, err := Pack(wide{X: 5}, &Config{NumBits: 8})
	if err == nil {
		t.Fatal("Pack() expected error when total bits exceed NumBits, got nil")
	}
}

func ExamplePack() {
	packed, err := Pack(sampleFlags{A: true, C: 0x05}, &Config{NumBits: 8})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("0x%02x\n", packed)
	// Output:
	// 0x15
}
