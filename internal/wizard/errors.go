package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a wizard session id is unknown or expired
	ErrSessionNotFound = errors.New("wizard session not found")
	// ErrCheckoutDisabled is returned when payment is attempted without a configured processor
	ErrCheckoutDisabled = errors.New("checkout is not configured")
)

// ErrorKind classifies why a step did not advance
type ErrorKind string

const (
	// KindValidation means the input was rejected before any collaborator was called
	KindValidation ErrorKind = "validation"
	// KindCollaborator means the store, notifier or gateway failed
	KindCollaborator ErrorKind = "collaborator"
	// KindSession means the purchase id is missing and the wizard must restart
	KindSession ErrorKind = "session"
)

// Messages shown to the customer
const (
	msgRequiredFields   = "Please fill in all required fields"
	msgInvalidEmail     = "Please enter a valid email address"
	msgNoTier           = "Please select a sync frequency that matches a pricing tier"
	msgTermsRequired    = "Please accept the terms and conditions to continue"
	msgSessionMissing   = "Purchase session not found. Please start over."
	msgCreateFailed     = "Failed to start purchase process. Please try again."
	msgBusinessFailed   = "Failed to save details. Please try again."
	msgTermsFailed      = "Failed to save terms acceptance. Please try again."
	msgCheckoutFailed   = "Failed to start payment process. Please try again."
	msgLastStep         = "This is the final step. Proceed to checkout to complete your purchase."
	msgFirstStep        = "Already at the first step"
	msgNotReady         = "Please complete the previous steps before checkout"
	msgFieldsLocked     = "Those details belong to another step. Go back to that step to change them."
	msgCheckoutDisabled = "Stripe is not configured. Set STRIPE_SECRET_KEY and STRIPE_PUBLISHABLE_KEY environment variables."
)

// StepError is returned when an action leaves the wizard on its current step
type StepError struct {
	Kind    ErrorKind
	Step    int
	Message string
	Err     error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %d: %s: %v", e.Step, e.Message, e.Err)
	}
	return fmt.Sprintf("step %d: %s", e.Step, e.Message)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func validationError(step int, msg string) error {
	return &StepError{Kind: KindValidation, Step: step, Message: msg}
}

func collaboratorError(step int, msg string, err error) error {
	return &StepError{Kind: KindCollaborator, Step: step, Message: msg, Err: err}
}

func sessionError(step int) error {
	return &StepError{Kind: KindSession, Step: step, Message: msgSessionMissing}
}
