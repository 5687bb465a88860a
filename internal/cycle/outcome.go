// internal/cycle/outcome.go
package cycle

// Status tags a phase result. The controller's transition table accepts
// all three uniformly: a phase can degrade the data, never halt the cycle.
type Status uint8

const (
	StatusOK Status = iota
	StatusDegraded
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Outcome is one phase's tagged result.
type Outcome struct {
	Status Status
	Reason string
}

func ok() Outcome                    { return Outcome{Status: StatusOK} }
func degraded(reason string) Outcome { return Outcome{Status: StatusDegraded, Reason: reason} }
func unavailable(reason string) Outcome {
	return Outcome{Status: StatusUnavailable, Reason: reason}
}

// State names the controller's stations. Normal cycles terminate in
// StateSleep; a rapid-reset boot terminates in StateDiagnostic.
type State uint8

const (
	StateBoot State = iota
	StateJoin
	StateTimeSync
	StateAcquire
	StatePublish
	StateSleep
	StateDiagnostic
)

func (s State) String() string {
	switch s {
	case StateBoot:
		return "boot"
	case StateJoin:
		return "join"
	case StateTimeSync:
		return "timesync"
	case StateAcquire:
		return "acquire"
	case StatePublish:
		return "publish"
	case StateSleep:
		return "sleep"
	case StateDiagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}
