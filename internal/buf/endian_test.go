package buf

import "testing"

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x3F, 0x5F, 0x03, 0x00, 0xFE, 0xFF}

	if got := U16LE(data); got != 0x5F3F {
		t.Fatalf("U16LE = 0x%x, want 0x5f3f", got)
	}
	if got := U32LE(data); got != 0x00035F3F {
		t.Fatalf("U32LE = 0x%x, want 0x35f3f", got)
	}
	if got := I16LE(data[4:]); got != -2 {
		t.Fatalf("I16LE = %d, want -2", got)
	}
	if got := I32LE([]byte{0xFF, 0xFF, 0xFF, 0xFF}); got != -1 {
		t.Fatalf("I32LE = %d, want -1", got)
	}

	short := []byte{0xAA}
	if U16LE(short) != 0 || I16LE(short) != 0 {
		t.Fatalf("U16LE short should be 0")
	}
	if U32LE(short) != 0 || I32LE(short) != 0 {
		t.Fatalf("short reads should return 0")
	}
}
