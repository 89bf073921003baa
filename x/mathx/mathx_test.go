package mathx

import "testing"

func TestClamp(t *testing.T) {
	if Clamp(-5, 0, 10) != 0 {
		t.Fatal("clamp low failed")
	}
	if Clamp(15, 0, 10) != 10 {
		t.Fatal("clamp high failed")
	}
	if Clamp(7, 0, 10) != 7 {
		t.Fatal("clamp mid failed")
	}
	// Swapped bounds.
	if Clamp(7, 10, 0) != 7 {
		t.Fatal("clamp with swapped bounds failed")
	}
}
