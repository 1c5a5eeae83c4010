package orchestrator

// State is a step of a single analysis run.
type State int32

const (
	Idle State = iota
	Extracting
	Hashing
	CacheLookup
	CacheHit
	RemoteCall
	Validating
	CacheWrite
	Rendered
	Error
)

var stateNames = [...]string{
	Idle:        "idle",
	Extracting:  "extracting",
	Hashing:     "hashing",
	CacheLookup: "cache-lookup",
	CacheHit:    "cache-hit",
	RemoteCall:  "remote-call",
	Validating:  "validating",
	CacheWrite:  "cache-write",
	Rendered:    "rendered",
	Error:       "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
