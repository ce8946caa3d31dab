package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrNotReady            = errors.New("checkout is not complete")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrDuplicateSubmission = errors.New("order already submitted with this token")
	ErrPersist             = errors.New("order could not be saved")
	ErrRestaurantNotFound  = errors.New("restaurant not found")
)

// StepError tells which wizard step is still missing answers.
type StepError struct {
	Step Step
}

func (e *StepError) Error() string {
	return fmt.Sprintf("checkout step %d (%s) is incomplete", int(e.Step), e.Step.Label())
}

func (e *StepError) Unwrap() error {
	return ErrNotReady
}
