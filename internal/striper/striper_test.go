package striper

import "testing"

func TestStripeKnownValues(t *testing.T) {
	bufA, bufB, err := Stripe([]byte{0x12, 0x34})
	if err != nil {
		t.Fatalf("Stripe: %v", err)
	}
	if len(bufA) != 1 || len(bufB) != 1 {
		t.Fatalf("len(bufA)=%d len(bufB)=%d, want 1 each", len(bufA), len(bufB))
	}
	if bufA[0] != 0x24 { // byte(0x12<<4)|(0x34&0x0F) = 0x20|0x04
		t.Fatalf("bufA[0] = %#x, want 0x24", bufA[0])
	}
	if bufB[0] != 0x13 { // (0x12&0xF0)|(0x34>>4) = 0x10|0x03
		t.Fatalf("bufB[0] = %#x, want 0x13", bufB[0])
	}
}

func TestStripeRejectsOddLength(t *testing.T) {
	if _, _, err := Stripe([]byte{0x01, 0x02, 0x03}); err == nil {
		t.Fatal("Stripe: expected error for odd-length input, got nil")
	}
}

func TestStripeUnstripeRoundTrips(t *testing.T) {
	input := make([]byte, 256)
	for i := range input {
		input[i] = byte(i*37 + 11)
	}
	bufA, bufB, err := Stripe(input)
	if err != nil {
		t.Fatalf("Stripe: %v", err)
	}
	got, err := Unstripe(bufA, bufB)
	if err != nil {
		t.Fatalf("Unstripe: %v", err)
	}
	if len(got) != len(input) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(input))
	}
	for i := range input {
		if got[i] != input[i] {
			t.Fatalf("got[%d] = %#x, want %#x", i, got[i], input[i])
		}
	}
}

func TestUnstripeRejectsMismatchedLengths(t *testing.T) {
	if _, err := Unstripe([]byte{1, 2}, []byte{1}); err == nil {
		t.Fatal("Unstripe: expected error for mismatched lengths, got nil")
	}
}
