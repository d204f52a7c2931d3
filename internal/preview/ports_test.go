// SPDX-License-Identifier: MPL-2.0

package preview

import "testing"

func TestPortAllocator_Monotonic(t *testing.T) {
	t.Parallel()
	a := NewPortAllocator(3100)
	for i := 0; i < 5; i++ {
		if got, want := a.Allocate(), 3100+i; got != want {
			t.Errorf("Allocate() #%d = %d, want %d", i, got, want)
		}
	}
}

func TestPortAllocator_ReusesReleased(t *testing.T) {
	t.Parallel()
	a := NewPortAllocator(3100)
	first := a.Allocate()
	second := a.Allocate()

	a.Release(first)
	if got := a.Allocate(); got != first {
		t.Errorf("Allocate() after release = %d, want %d", got, first)
	}
	// Free list exhausted, counter resumes where it left off.
	if got, want := a.Allocate(), second+1; got != want {
		t.Errorf("Allocate() = %d, want %d", got, want)
	}
}

func TestPortAllocator_NeverHandsOutHeldPorts(t *testing.T) {
	t.Parallel()
	a := NewPortAllocator(3100)
	held := make(map[int]bool)
	for i := 0; i < 50; i++ {
		port := a.Allocate()
		if held[port] {
			t.Fatalf("Allocate() returned held port %d", port)
		}
		held[port] = true
	}
}

func TestPortAllocator_FreeListIsLIFO(t *testing.T) {
	t.Parallel()
	a := NewPortAllocator(3100)
	p1 := a.Allocate()
	p2 := a.Allocate()

	a.Release(p1)
	a.Release(p2)
	if got := a.Allocate(); got != p2 {
		t.Errorf("Allocate() = %d, want most recently released %d", got, p2)
	}
	if got := a.Allocate(); got != p1 {
		t.Errorf("Allocate() = %d, want %d", got, p1)
	}
}
