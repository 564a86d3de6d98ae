package slurm

import (
	"fmt"
	"strings"
)

// Status is the normalized view of a job's state. The scheduler's raw state
// tokens are mapped onto it by MapState.
type Status int

const (
	// An unambiguous 0-value: the scheduler no longer reports the job and no
	// accounting record was found. Finished long enough ago to be purged, or
	// never existed.
	Unknown Status = iota
	// Waiting in the queue (also held, requeued, suspended).
	Pending
	// Executing (also completing, staging out).
	Running

	// States below are terminal; a job in one of them will not change again.

	Completed
	Failed
	Cancelled
)

func (s Status) IsTerminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

func (s Status) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case Pending:
		return "PENDING"
	case Running:
		return "RUNNING"
	case Completed:
		return "COMPLETED"
	case Failed:
		return "FAILED"
	case Cancelled:
		return "CANCELLED"
	default:
		panic(fmt.Sprintf("unexpected Status %v", int(s)))
	}
}

// MarshalJSON encodes the status by name, for descriptors that cross the
// store or the HTTP surface.
func (s Status) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	*s = ParseStatus(strings.Trim(string(data), `"`))
	return nil
}

// ParseStatus is the inverse of String, for descriptors loaded from storage.
func ParseStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PENDING":
		return Pending
	case "RUNNING":
		return Running
	case "COMPLETED":
		return Completed
	case "FAILED":
		return Failed
	case "CANCELLED":
		return Cancelled
	default:
		return Unknown
	}
}

// MapState maps a raw SLURM state token to a Status. The mapping is total:
// every token lands on exactly one Status and anything unrecognized is
// Unknown. sacct suffixes ("+", "CANCELLED by 1234") are tolerated.
func MapState(raw string) Status {
	state := strings.ToUpper(strings.TrimSpace(raw))
	state = strings.TrimSuffix(state, "+")
	if f := strings.Fields(state); len(f) > 0 {
		state = f[0]
	}

	switch state {
	case "PENDING", "CONFIGURING", "REQUEUED", "REQUEUE_FED", "REQUEUE_HOLD",
		"RESV_DEL_HOLD", "SUSPENDED", "SPECIAL_EXIT":
		return Pending
	case "RUNNING", "COMPLETING", "STAGE_OUT", "SIGNALING", "RESIZING":
		return Running
	case "COMPLETED":
		return Completed
	case "FAILED", "TIMEOUT", "DEADLINE", "NODE_FAIL", "BOOT_FAIL",
		"OUT_OF_MEMORY", "PREEMPTED", "REVOKED":
		return Failed
	case "CANCELLED":
		return Cancelled
	default:
		return Unknown
	}
}
