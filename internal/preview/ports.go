// SPDX-License-Identifier: MPL-2.0

package preview

import "sync"

// PortAllocator hands out host ports for container port mappings. Released
// ports are reused before the monotonic counter advances, so long-running
// processes do not walk the port space indefinitely.
type PortAllocator struct {
	mu   sync.Mutex
	next int
	free []int
}

// NewPortAllocator returns an allocator whose counter starts at basePort.
func NewPortAllocator(basePort int) *PortAllocator {
	return &PortAllocator{next: basePort}
}

// Allocate returns a host port not currently held by any caller. Ports come
// from the free list first, most recently released first.
func (a *PortAllocator) Allocate() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.free); n > 0 {
		port := a.free[n-1]
		a.free = a.free[:n-1]
		return port
	}
	port := a.next
	a.next++
	return port
}

// Release returns a port to the free list. Callers must release only after
// the container holding the port is fully removed.
func (a *PortAllocator) Release(port int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = append(a.free, port)
}
