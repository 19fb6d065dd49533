package dispatcher

// FailureClass is the collaborator's classification of a failed unit of
// work. Only credential exhaustion triggers failover; transient failures
// are counted and the slot stays ready.
type FailureClass string

const (
	FailureNone                FailureClass = ""
	FailureTransient           FailureClass = "transient"
	FailureCredentialExhausted FailureClass = "credential-exhausted"
)

// Outcome is the caller's report for one released lease.
type Outcome struct {
	Success bool
	Class   FailureClass
}

func Succeeded() Outcome {
	return Outcome{Success: true}
}

func Failed(class FailureClass) Outcome {
	if class == FailureNone {
		class = FailureTransient
	}
	return Outcome{Success: false, Class: class}
}
