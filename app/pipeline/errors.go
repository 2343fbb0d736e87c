package pipeline

import (
	"errors"
	"fmt"
)

type Step string

const (
	StepPreferences Step = "preferences"
	StepCrawl       Step = "crawl"
	StepPublish     Step = "publish"
)

var (
	ErrPreferenceWriteFailed = errors.New("failed to save preferences")
	ErrCrawlFailed           = errors.New("crawl failed")
	ErrPublishFailed         = errors.New("publish failed")
)

// StepError reports which sync step failed. It matches the sentinel of its
// step with errors.Is and unwraps to the underlying cause.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.sentinel(), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *StepError) sentinel() error {
	switch e.Step {
	case StepPreferences:
		return ErrPreferenceWriteFailed
	case StepCrawl:
		return ErrCrawlFailed
	default:
		return ErrPublishFailed
	}
}
