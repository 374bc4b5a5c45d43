// Package envelope decodes and inspects the upstream batch envelope:
//
//	{ status_code, status_message, cost, tasks: [ { status_code, status_message, cost, result: [...] } ] }
//
// The payload is validated once at the boundary; everything downstream works
// on the typed structures.
package envelope

// StatusOK is the success sentinel for both the envelope and each task.
const StatusOK = 20000

// Envelope is the top-level upstream response, generic over the result item type.
type Envelope[T any] struct {
	Version       string    `json:"version,omitempty"`
	StatusCode    int       `json:"status_code"`
	StatusMessage string    `json:"status_message"`
	Time          string    `json:"time,omitempty"`
	Cost          float64   `json:"cost"`
	TasksCount    int       `json:"tasks_count"`
	TasksError    int       `json:"tasks_error"`
	Tasks         []Task[T] `json:"tasks"`
}

// Task is one independently classified unit of work inside an envelope.
type Task[T any] struct {
	ID            string  `json:"id"`
	StatusCode    int     `json:"status_code"`
	StatusMessage string  `json:"status_message"`
	Time          string  `json:"time,omitempty"`
	Cost          float64 `json:"cost"`
	ResultCount   int     `json:"result_count"`
	Result        []T     `json:"result"`
}

// OK reports whether the envelope itself succeeded.
func (e *Envelope[T]) OK() bool {
	return e != nil && e.StatusCode == StatusOK
}

// OK reports whether the task succeeded.
func (t Task[T]) OK() bool {
	return t.StatusCode == StatusOK
}

// AttemptCost is what the provider billed for the call that produced e.
// The top-level cost already aggregates task costs; older responses that
// omit it fall back to the per-task sum.
func (e *Envelope[T]) AttemptCost() float64 {
	if e == nil {
		return 0
	}
	if e.Cost > 0 {
		return e.Cost
	}
	var sum float64
	for _, t := range e.Tasks {
		sum += t.Cost
	}
	return sum
}
