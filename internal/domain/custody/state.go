package custody

// ===============================
// Transfer attempt state
// ===============================

// State tracks a single transfer attempt. A request either commits
// directly, or halts at Warned until the caller resubmits with the
// acknowledgment flag. Abandoned is client-side only: walking away from a
// warning leaves no server state behind.
type State string

const (
	StateDraft     State = "draft"
	StateWarned    State = "warned"
	StateConfirmed State = "confirmed"
	StateCommitted State = "committed"
	StateAbandoned State = "abandoned"
)
