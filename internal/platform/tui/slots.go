package tui

import "sync"

// SlotGuard lets one SSH connection at a time play a given save slot.
// Two connections on the same slot would each run their own game and
// overwrite each other's saves.
type SlotGuard struct {
	mu     sync.Mutex
	owners map[string]string
}

func NewSlotGuard() *SlotGuard {
	return &SlotGuard{owners: make(map[string]string)}
}

// Acquire claims slot for owner. It reports false if another owner holds
// it; claiming a slot the owner already holds succeeds.
func (g *SlotGuard) Acquire(slot, owner string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.owners[slot]; ok && cur != owner {
		return false
	}
	g.owners[slot] = owner
	return true
}

// Release frees slot if owner holds it.
func (g *SlotGuard) Release(slot, owner string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owners[slot] == owner {
		delete(g.owners, slot)
	}
}

// ReleaseOwner frees every slot owner holds. It runs when a connection
// drops without leaving its game.
func (g *SlotGuard) ReleaseOwner(owner string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for slot, cur := range g.owners {
		if cur == owner {
			delete(g.owners, slot)
		}
	}
}

// Holder returns the owner of slot, if any.
func (g *SlotGuard) Holder(slot string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	owner, ok := g.owners[slot]
	return owner, ok
}
