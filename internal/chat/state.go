package chat

// State is the engine's position in the send lifecycle:
// Idle -> Building -> Submitting -> Recorded | Rejected -> Idle.
type State string

const (
	StateIdle       State = "idle"
	StateBuilding   State = "building"
	StateSubmitting State = "submitting"
	StateRecorded   State = "recorded"
	StateRejected   State = "rejected"
)
