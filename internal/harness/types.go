package harness

// CaseResult is the outcome of compiling one case for one dialect.
type CaseResult struct {
	Case    string `json:"case"`
	Dialect string `json:"dialect"`
	SQL     string `json:"sql,omitempty"`
	Params  []any  `json:"params,omitempty"`

	// Error is the error code the case failed with, if any. Message holds
	// the full error text.
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ExecutionResult is the outcome of running one case against SQLite.
type ExecutionResult struct {
	Case     string `json:"case"`
	Rows     int    `json:"rows"`
	Affected int64  `json:"affected"`
	Error    string `json:"error,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation matched.
	Pass bool `json:"pass"`

	Scenario   string            `json:"scenario"`
	Cases      []CaseResult      `json:"cases"`
	Executions []ExecutionResult `json:"executions,omitempty"`

	// Errors contains one message per failed expectation.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(scenario string) *Result {
	return &Result{
		Pass:     true,
		Scenario: scenario,
		Cases:    []CaseResult{},
		Errors:   []string{},
	}
}

// AddError adds a failed expectation and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
