package constraint

// BoundJoint is a joint resolved to solver body indices for one step.
type BoundJoint struct {
	Joint Joint
	A, B  int
}

// Solver runs sequential impulses over contacts and joints.
type Solver struct {
	Iterations int
	Contact    ContactSettings
	WarmStart  bool
}

// NewSolver returns a solver with warm starting enabled.
func NewSolver(iterations int, settings ContactSettings) *Solver {
	return &Solver{Iterations: iterations, Contact: settings, WarmStart: true}
}

// Solve updates the velocities of bodies. Manifold and joint indices refer
// to bodies. Each manifold's accumulated impulses are written back to its
// points for the contact cache.
func (s *Solver) Solve(bodies []Body, manifolds []*ContactManifold, joints []BoundJoint, dt float64) {
	// 1. Prepare (restitution targets use the velocities before any impulse)
	for _, m := range manifolds {
		m.prepare(&bodies[m.BodyA], &bodies[m.BodyB], s.Contact, dt)
	}
	for _, bj := range joints {
		a, b := &bodies[bj.A], &bodies[bj.B]
		bj.Joint.Prepare(a, b, s.Contact.Baumgarte, dt)
		rows := bj.Joint.Rows()
		for i := range rows {
			rows[i].Prepare(a, b)
		}
	}

	// 2. Warm start
	if s.WarmStart {
		for _, m := range manifolds {
			m.warmStart(&bodies[m.BodyA], &bodies[m.BodyB])
		}
		for _, bj := range joints {
			rows := bj.Joint.Rows()
			for i := range rows {
				rows[i].WarmStart(&bodies[bj.A], &bodies[bj.B])
			}
		}
	} else {
		for _, m := range manifolds {
			for i := range m.Points {
				p := &m.Points[i]
				p.normalRow.Impulse = 0
				p.tangentRows[0].Impulse = 0
				p.tangentRows[1].Impulse = 0
			}
		}
		for _, bj := range joints {
			rows := bj.Joint.Rows()
			for i := range rows {
				rows[i].Impulse = 0
			}
		}
	}

	// 3. Iterate: contacts then joints, impulses applied immediately
	for iter := 0; iter < s.Iterations; iter++ {
		for _, m := range manifolds {
			m.solve(&bodies[m.BodyA], &bodies[m.BodyB])
		}
		for _, bj := range joints {
			rows := bj.Joint.Rows()
			for i := range rows {
				rows[i].Solve(&bodies[bj.A], &bodies[bj.B])
			}
		}
	}

	// 4. Store
	for _, m := range manifolds {
		m.store()
	}
}
