package harness

// TraceEvent is one request made while running a scenario.
type TraceEvent struct {
	Seq         int               `json:"seq"`
	Endpoint    string            `json:"endpoint"`
	Params      map[string]string `json:"params,omitempty"`
	Status      int               `json:"status"`
	ContentType string            `json:"content_type,omitempty"`
	// Body is the response text, or a summary for binary responses.
	Body string `json:"body"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every setup and step request, in order.
	Trace []TraceEvent `json:"trace"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends ev, numbering it.
func (r *Result) AddTrace(ev TraceEvent) TraceEvent {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
	return ev
}
