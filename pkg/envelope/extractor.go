package envelope

import "fmt"

// Summary is a non-failing digest of an envelope for logging and partial-data decisions.
type Summary struct {
	TotalCost       float64  `json:"total_cost"`
	TotalTasks      int      `json:"total_tasks"`
	SuccessfulTasks int      `json:"successful_tasks"`
	FailedTasks     int      `json:"failed_tasks"`
	TotalResults    int      `json:"total_results"`
	Warnings        []string `json:"warnings,omitempty"`
}

// CheckStatus fails when the envelope is missing or its top-level status is not OK.
func CheckStatus[T any](env *Envelope[T]) error {
	if env == nil {
		return &EnvelopeError{Kind: KindEmpty}
	}
	if env.StatusCode != StatusOK {
		return &EnvelopeError{
			Kind:          KindEnvelopeFailed,
			StatusCode:    env.StatusCode,
			StatusMessage: env.StatusMessage,
			Cost:          env.AttemptCost(),
		}
	}
	return nil
}

// ExtractFirstTaskResult returns the result list of the first task.
// The list may be empty; use ExtractFirstResultItem when an item is required.
func ExtractFirstTaskResult[T any](env *Envelope[T]) ([]T, error) {
	if err := CheckStatus(env); err != nil {
		return nil, err
	}
	if len(env.Tasks) == 0 {
		return nil, &EnvelopeError{Kind: KindNoTasks, StatusCode: env.StatusCode, Cost: env.AttemptCost()}
	}

	task := env.Tasks[0]
	if !task.OK() {
		return nil, &EnvelopeError{
			Kind:          KindTaskFailed,
			StatusCode:    task.StatusCode,
			StatusMessage: task.StatusMessage,
			Cost:          env.AttemptCost(),
		}
	}
	if task.Result == nil {
		return []T{}, nil
	}
	return task.Result, nil
}

// ExtractFirstResultItem returns the first item of the first task's result list.
func ExtractFirstResultItem[T any](env *Envelope[T]) (T, error) {
	var zero T

	items, err := ExtractFirstTaskResult(env)
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, &EnvelopeError{
			Kind:          KindNoResults,
			StatusCode:    env.Tasks[0].StatusCode,
			StatusMessage: env.Tasks[0].StatusMessage,
			Cost:          env.AttemptCost(),
		}
	}
	return items[0], nil
}

// ExtractAllResults concatenates the results of every successful task.
// Failed tasks are skipped; Summarize reports them.
func ExtractAllResults[T any](env *Envelope[T]) []T {
	if env == nil {
		return nil
	}

	var all []T
	for _, task := range env.Tasks {
		if task.OK() {
			all = append(all, task.Result...)
		}
	}
	return all
}

// Summarize never fails. It emits one warning per failed or empty task.
func Summarize[T any](env *Envelope[T]) Summary {
	if env == nil {
		return Summary{Warnings: []string{"envelope is empty"}}
	}

	summary := Summary{
		TotalCost:  env.AttemptCost(),
		TotalTasks: len(env.Tasks),
	}
	if !env.OK() {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("envelope status %d: %s", env.StatusCode, env.StatusMessage))
	}

	for i, task := range env.Tasks {
		label := task.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}

		switch {
		case !task.OK():
			summary.FailedTasks++
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("task %s failed with status %d: %s", label, task.StatusCode, task.StatusMessage))
		case len(task.Result) == 0:
			summary.SuccessfulTasks++
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("task %s returned no results", label))
		default:
			summary.SuccessfulTasks++
			summary.TotalResults += len(task.Result)
		}
	}

	return summary
}
