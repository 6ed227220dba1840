package engine

import "sort"

// presenceSet tracks which participants are online. Membership is a
// set, not a count. A sync replaces the whole set; teardown clears it
// and marks it invalid until the next sync, so stale knowledge never
// survives a reconnect.
type presenceSet struct {
	members map[string]struct{}
	valid   bool
}

func newPresenceSet() *presenceSet {
	return &presenceSet{members: make(map[string]struct{})}
}

// Sync replaces the full membership.
func (p *presenceSet) Sync(ids []string) {
	p.members = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			p.members[id] = struct{}{}
		}
	}
	p.valid = true
}

// Join adds one member.
func (p *presenceSet) Join(id string) {
	if id != "" {
		p.members[id] = struct{}{}
	}
}

// Leave removes one member.
func (p *presenceSet) Leave(id string) {
	delete(p.members, id)
}

// Clear drops all membership on channel teardown. The set stays
// invalid until the next Sync.
func (p *presenceSet) Clear() {
	p.members = make(map[string]struct{})
	p.valid = false
}

// Valid reports whether the set reflects a live sync.
func (p *presenceSet) Valid() bool {
	return p.valid
}

// IsOnline reports membership.
func (p *presenceSet) IsOnline(id string) bool {
	_, ok := p.members[id]
	return ok
}

// Online returns the sorted member list.
func (p *presenceSet) Online() []string {
	out := make([]string, 0, len(p.members))
	for id := range p.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
