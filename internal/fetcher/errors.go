package fetcher

import "fmt"

// ExhaustedError is terminal for one operation in the current cycle: every
// allowed attempt hit the upstream rate limit.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted for %s after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}
