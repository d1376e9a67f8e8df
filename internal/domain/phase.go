package domain

import "fmt"

// Phase is the lifecycle stage of a round.
// Transitions: pending → presale → active → ended; ended leaves only
// via a new round.
type Phase int

const (
	PhasePending Phase = iota
	PhasePresale
	PhaseActive
	PhaseEnded
)

// String returns the canonical lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhasePresale:
		return "presale"
	case PhaseActive:
		return "active"
	case PhaseEnded:
		return "ended"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// ParsePhase parses a canonical phase name.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "pending":
		return PhasePending, nil
	case "presale":
		return PhasePresale, nil
	case "active":
		return PhaseActive, nil
	case "ended":
		return PhaseEnded, nil
	default:
		return 0, fmt.Errorf("unknown phase %q", s)
	}
}
