package debate

// ProgressKind tags the intermediate signals a StepRunner may emit while a
// step is executing. Payloads from the runner are decoded into this variant
// once, at the runner boundary, so downstream code never inspects ad hoc
// shapes.
type ProgressKind int

const (
	// ProgressThought is intermediate reasoning, attributed to the running step.
	ProgressThought ProgressKind = iota
	// ProgressConclusion is the step's final output. Observing one is the
	// only signal that advances the coordinator's current-step pointer.
	ProgressConclusion
	// ProgressOther covers tool calls and anything else the runner surfaces.
	ProgressOther
)

// Progress is one intermediate signal from a running step.
type Progress struct {
	Kind ProgressKind
	Role string
	Text string
}

// ProgressFunc receives progress signals during step execution.
type ProgressFunc func(Progress)
