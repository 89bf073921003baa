package rcc

import "testing"

func TestDomainOf(t *testing.T) {
	cases := []struct {
		id   ClockID
		want Domain
	}{
		{ClockSPI1, APB2},
		{ClockSPI2, APB1},
		{ClockSPI3, APB1},
		{ClockI2C1, APB1},
		{ClockI2C2, APB1},
	}
	for _, c := range cases {
		if got := DomainOf(c.id); got != c.want {
			t.Fatalf("DomainOf(%d) = %d, want %d", c.id, got, c.want)
		}
	}
}

func TestDomainClocks(t *testing.T) {
	if APB1.ClockHz() != 36_000_000 {
		t.Fatalf("APB1 = %d", APB1.ClockHz())
	}
	if APB2.ClockHz() != 72_000_000 {
		t.Fatalf("APB2 = %d", APB2.ClockHz())
	}
	// APB2 runs at exactly twice APB1: the baud tables rely on this.
	if APB2.ClockHz() != 2*APB1.ClockHz() {
		t.Fatal("APB2 must be twice APB1")
	}
}
