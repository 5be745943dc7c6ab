package function

// Outcome is what a run produced before it is reported.
type Outcome struct {
	Value interface{}
	Logs  []LogEntry
	Err   error
}

func FormatResult(outcome Outcome) ExecutionResult {
	logs := outcome.Logs
	if logs == nil {
		logs = make([]LogEntry, 0)
	}
	if outcome.Err != nil {
		msg := outcome.Err.Error()
		if msg == "" {
			msg = "script execution failed"
		}
		return ExecutionResult{Success: false, Logs: logs, Error: msg}
	}
	return ExecutionResult{Success: true, Result: outcome.Value, Logs: logs}
}
