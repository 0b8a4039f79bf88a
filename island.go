package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
)

// unionFind is a disjoint set over snapshot indices.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		// Path halving
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		uf.parent[ra] = rb
	case uf.rank[ra] > uf.rank[rb]:
		uf.parent[rb] = ra
	default:
		uf.parent[rb] = ra
		uf.rank[ra]++
	}
}

// buildIslands links dynamic bodies touching through contacts or joints.
// It returns the island of each index (-1 for non-dynamic bodies) and the
// island count. Static and kinematic bodies never join islands.
func buildIslands(refs []bodyRef, contacts []*constraint.ContactManifold, joints []constraint.BoundJoint) ([]int, int) {
	dynamic := func(i int) bool {
		return refs[i].body != nil && refs[i].body.IsDynamic()
	}

	uf := newUnionFind(len(refs))
	for _, m := range contacts {
		if dynamic(m.BodyA) && dynamic(m.BodyB) {
			uf.union(m.BodyA, m.BodyB)
		}
	}
	for _, j := range joints {
		if dynamic(j.A) && dynamic(j.B) {
			uf.union(j.A, j.B)
		}
	}

	islands := make([]int, len(refs))
	ids := make(map[int]int)
	for i := range refs {
		if !dynamic(i) {
			islands[i] = -1
			continue
		}
		root := uf.find(i)
		id, ok := ids[root]
		if !ok {
			id = len(ids)
			ids[root] = id
		}
		islands[i] = id
	}
	return islands, len(ids)
}

// wakeIslands wakes every member of an island that has an awake member, so
// islands are solved either whole or not at all.
func wakeIslands(snapshots []bodySnapshot, refs []bodyRef, islands []int, count int) {
	awake := make([]bool, count)
	for i, island := range islands {
		if island >= 0 && !refs[i].body.Sleeping {
			awake[island] = true
		}
	}
	for i, island := range islands {
		if island < 0 || !awake[island] {
			continue
		}
		if body := refs[i].body; body.Sleeping {
			body.Wake()
			snapshots[i].sleeping = false
		}
	}
}

// updateSleep accumulates low-motion time, wakes islands still mixing awake
// and asleep members and puts to sleep the islands whose members all rested
// for cfg.TimeToSleep.
func updateSleep(refs []bodyRef, islands []int, count int, cfg Config, dt float64) {
	type islandState struct {
		awake, asleep bool
		rested        bool
	}
	states := make([]islandState, count)
	for i := range states {
		states[i].rested = true
	}

	for i, island := range islands {
		if island < 0 {
			continue
		}
		body := refs[i].body
		body.Island = island
		state := &states[island]

		if body.Sleeping {
			state.asleep = true
			continue
		}
		state.awake = true

		if body.Velocity.Len() < cfg.SleepLinearThreshold && body.AngularVelocity.Len() < cfg.SleepAngularThreshold {
			body.LowMotionTime += dt
		} else {
			body.LowMotionTime = 0
		}
		if body.LowMotionTime < cfg.TimeToSleep {
			state.rested = false
		}
	}

	for i, island := range islands {
		if island < 0 {
			if refs[i].body != nil {
				refs[i].body.Island = -1
			}
			continue
		}
		body, state := refs[i].body, states[island]
		switch {
		case state.awake && state.asleep:
			if body.Sleeping {
				body.Wake()
			}
		case state.awake && state.rested:
			body.Sleep()
		}
	}
}

// wakeTouched wakes asleep bodies touched by, or jointed to, a moving body.
func wakeTouched(snapshots []bodySnapshot, refs []bodyRef, contacts []*constraint.ContactManifold, joints []constraint.BoundJoint) {
	moving := func(i int) bool {
		body := refs[i].body
		if body == nil || body.Sleeping {
			return false
		}
		switch body.Kind {
		case actor.BodyKindDynamic:
			return true
		case actor.BodyKindKinematic:
			return body.Velocity.LenSqr() > 0 || body.AngularVelocity.LenSqr() > 0
		}
		return false
	}
	wake := func(i int) {
		if body := refs[i].body; body != nil && body.Sleeping {
			body.Wake()
			snapshots[i].sleeping = false
		}
	}

	for _, m := range contacts {
		a, b := moving(m.BodyA), moving(m.BodyB)
		if a {
			wake(m.BodyB)
		}
		if b {
			wake(m.BodyA)
		}
	}
	for _, j := range joints {
		a, b := moving(j.A), moving(j.B)
		if a {
			wake(j.B)
		}
		if b {
			wake(j.A)
		}
	}
}
