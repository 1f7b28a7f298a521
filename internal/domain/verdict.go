package domain

// VerdictKind classifies how a watched iteration ended.
type VerdictKind int

const (
	// VerdictCompleted means the batch finished on its own.
	VerdictCompleted VerdictKind = iota

	// VerdictHung means the stall policy declared the target hung.
	VerdictHung
)

// String returns a human-readable representation of the kind.
func (k VerdictKind) String() string {
	switch k {
	case VerdictCompleted:
		return "Completed"
	case VerdictHung:
		return "Hung"
	default:
		return "Unknown"
	}
}

// HangReason identifies which stall signal fired.
type HangReason int

const (
	// ReasonNone is the zero value, present only on completed verdicts.
	ReasonNone HangReason = iota

	// ReasonNoProgress means the aggregate progress size stagnated for
	// longer than the no-progress timeout.
	ReasonNoProgress

	// ReasonProbeFailure means the latest liveness sample reported the
	// target unreachable.
	ReasonProbeFailure
)

// String returns a human-readable representation of the reason.
func (r HangReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNoProgress:
		return "no-progress"
	case ReasonProbeFailure:
		return "probe-failure"
	default:
		return "unknown"
	}
}

// Verdict is the stall detector's classification of one iteration.
type Verdict struct {
	Kind VerdictKind

	// Reason is set only when Kind is VerdictHung.
	Reason HangReason

	// Result is set only when Kind is VerdictCompleted.
	Result BatchResult
}

// CompletedVerdict builds a completed verdict carrying the batch result.
func CompletedVerdict(result BatchResult) Verdict {
	return Verdict{Kind: VerdictCompleted, Result: result}
}

// HungVerdict builds a hung verdict with the given reason.
func HungVerdict(reason HangReason) Verdict {
	return Verdict{Kind: VerdictHung, Reason: reason}
}
