package conversation

// Step is where a draft is in the submission flow.
type Step int

const (
	StepIdle Step = iota
	StepChoosingCategory
	StepAwaitingContent
	StepConfirming
	StepConfirmed
	StepCancelled
	StepExpired
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepChoosingCategory:
		return "choosing_category"
	case StepAwaitingContent:
		return "awaiting_content"
	case StepConfirming:
		return "confirming"
	case StepConfirmed:
		return "confirmed"
	case StepCancelled:
		return "cancelled"
	case StepExpired:
		return "expired"
	}
	return "unknown"
}
