package console

import "testing"

func TestWriteString(t *testing.T) {
	var b Buffer
	WriteString(&b, "hello")
	if b.String() != "hello" {
		t.Errorf("String() = %q, want %q", b.String(), "hello")
	}
}

func TestWriteHex(t *testing.T) {
	var b Buffer
	WriteHex(&b, 0xBEEF, 4)
	if b.String() != "beef" {
		t.Errorf("String() = %q, want %q", b.String(), "beef")
	}
}

func TestWriteHexZeroPadded(t *testing.T) {
	var b Buffer
	WriteHex(&b, 0x1, 8)
	if b.String() != "00000001" {
		t.Errorf("String() = %q, want %q", b.String(), "00000001")
	}
}

func TestWriteDecimal(t *testing.T) {
	cases := []struct {
		n    uint64
		want string
	}{
		{0, "0"},
		{7, "7"},
		{12345, "12345"},
	}
	for _, c := range cases {
		var b Buffer
		WriteDecimal(&b, c.n)
		if b.String() != c.want {
			t.Errorf("WriteDecimal(%d) = %q, want %q", c.n, b.String(), c.want)
		}
	}
}

func TestBufferReset(t *testing.T) {
	var b Buffer
	WriteString(&b, "x")
	b.Reset()
	if b.String() != "" {
		t.Errorf("String() after Reset = %q, want empty", b.String())
	}
}
