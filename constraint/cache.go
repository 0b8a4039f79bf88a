package constraint

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// PairKey identifies an unordered body pair, A < B.
type PairKey struct {
	A, B actor.EntityID
}

// MakePairKey normalizes the order of a and b.
func MakePairKey(a, b actor.EntityID) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

type cachedImpulse struct {
	normal float64
	// Friction is kept as a world vector so it survives a change of the
	// tangent basis between steps.
	tangent mgl64.Vec3
}

// ContactCache carries accumulated impulses from one step to the next, keyed
// by body pair and contact ID. Entries not observed again are dropped.
type ContactCache struct {
	entries map[PairKey]map[uint32]cachedImpulse
}

func NewContactCache() *ContactCache {
	return &ContactCache{entries: make(map[PairKey]map[uint32]cachedImpulse)}
}

// Apply seeds the impulses of points whose ID was seen for the same pair in
// the previous step. Other points start from zero.
func (c *ContactCache) Apply(manifolds []*ContactManifold) int {
	matched := 0
	for _, m := range manifolds {
		previous := c.entries[MakePairKey(m.A, m.B)]
		for i := range m.Points {
			p := &m.Points[i]
			p.NormalImpulse = 0
			p.TangentImpulse = [2]float64{}

			cached, ok := previous[p.ID]
			if !ok {
				continue
			}
			p.NormalImpulse = cached.normal
			p.TangentImpulse[0] = cached.tangent.Dot(p.Tangents[0])
			p.TangentImpulse[1] = cached.tangent.Dot(p.Tangents[1])
			matched++
		}
	}
	return matched
}

// Store replaces the cache content with the solved manifolds of this step.
func (c *ContactCache) Store(manifolds []*ContactManifold) {
	next := make(map[PairKey]map[uint32]cachedImpulse, len(manifolds))
	for _, m := range manifolds {
		key := MakePairKey(m.A, m.B)
		points := next[key]
		if points == nil {
			points = make(map[uint32]cachedImpulse, len(m.Points))
			next[key] = points
		}
		for _, p := range m.Points {
			points[p.ID] = cachedImpulse{
				normal:  p.NormalImpulse,
				tangent: p.Tangents[0].Mul(p.TangentImpulse[0]).Add(p.Tangents[1].Mul(p.TangentImpulse[1])),
			}
		}
	}
	c.entries = next
}

// Len returns the number of cached pairs.
func (c *ContactCache) Len() int {
	return len(c.entries)
}

// Reset drops every cached impulse.
func (c *ContactCache) Reset() {
	c.entries = make(map[PairKey]map[uint32]cachedImpulse)
}
