package typesystem

// Phase is the execution phase of code: preflight runs at build time to
// define infrastructure, inflight runs at runtime.
type Phase int

const (
	Preflight Phase = iota
	Inflight
	Independent
)

func (p Phase) String() string {
	switch p {
	case Preflight:
		return "preflight"
	case Inflight:
		return "inflight"
	default:
		return "phase-independent"
	}
}

// IsSubtypeOf reports whether a value of phase p may be used where phase o
// is expected. Phase-independent is below both other phases.
func (p Phase) IsSubtypeOf(o Phase) bool {
	return p == Independent || p == o
}

// CanCallTo reports whether code running in phase p may call a function of
// phase callee.
func (p Phase) CanCallTo(callee Phase) bool {
	return callee == Independent || callee == p
}
