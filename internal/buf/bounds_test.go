package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestMulOverflowSafe(t *testing.T) {
	if p, ok := MulOverflowSafe(4096, 12); !ok || p != 49152 {
		t.Fatalf("MulOverflowSafe(4096,12)=%d,%v", p, ok)
	}
	if p, ok := MulOverflowSafe(0, math.MaxInt); !ok || p != 0 {
		t.Fatalf("zero operand should succeed, got %d,%v", p, ok)
	}
	if _, ok := MulOverflowSafe(math.MaxInt/2, 3); ok {
		t.Fatalf("expected overflow")
	}
	if _, ok := MulOverflowSafe(-1, 3); ok {
		t.Fatalf("negative operands must be rejected")
	}
}

func TestCheckListBounds(t *testing.T) {
	end, err := CheckListBounds(64, 8, 4, 6)
	if err != nil || end != 32 {
		t.Fatalf("CheckListBounds = %d,%v want 32,nil", end, err)
	}
	if _, err := CheckListBounds(64, 8, 10, 6); err == nil {
		t.Fatalf("expected bounds error")
	}
	if _, err := CheckListBounds(64, -1, 1, 1); err == nil {
		t.Fatalf("expected negative offset error")
	}
	if _, err := CheckListBounds(64, 0, -1, 1); err == nil {
		t.Fatalf("expected negative count error")
	}
	if _, err := CheckListBounds(64, 0, math.MaxInt, 8); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestSliceAndHas(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if Has(data, 2, 4) {
		t.Fatalf("Has should be false for out-of-bounds range")
	}
	if !Has(data, 2, 1) {
		t.Fatalf("Has should be true for valid range")
	}
	if _, ok := Slice(data, -1, 1); ok {
		t.Fatalf("Slice should reject negative offset")
	}
	if _, ok := Slice(data, 1, -1); ok {
		t.Fatalf("Slice should reject negative length")
	}
}

func TestCString(t *testing.T) {
	data := []byte("|TOPIC\x00|CONTEXT\x00tail")
	s, n, ok := CString(data, 0)
	if !ok || string(s) != "|TOPIC" || n != 7 {
		t.Fatalf("CString(0) = %q,%d,%v", s, n, ok)
	}
	s, n, ok = CString(data, 7)
	if !ok || string(s) != "|CONTEXT" || n != 9 {
		t.Fatalf("CString(7) = %q,%d,%v", s, n, ok)
	}
	if _, _, ok := CString(data, 16); ok {
		t.Fatalf("unterminated string must not be ok")
	}
	if _, _, ok := CString(data, len(data)+1); ok {
		t.Fatalf("out of range offset must not be ok")
	}
}
