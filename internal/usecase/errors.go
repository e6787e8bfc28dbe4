package usecase

import "fmt"

// ToolError is a failure of the local media tool. It is recorded against the
// item it happened on and never aborts a batch.
type ToolError struct {
	Op  string
	Err error
}

func (e *ToolError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *ToolError) Unwrap() error { return e.Err }

// ServiceError is a failure of the transcription or task service. It ends
// the batch; Hint tells the user what to check.
type ServiceError struct {
	Service string
	Err     error
	Hint    string
}

func (e *ServiceError) Error() string { return fmt.Sprintf("%s: %v", e.Service, e.Err) }
func (e *ServiceError) Unwrap() error { return e.Err }
