package session

import (
	"context"
	"errors"

	"booking_engine/platform/apperr"
)

// Error codes surfaced to the chat surface.
const (
	CodeConfigurationUnavailable = "configuration_unavailable"
	CodeStartBookingFailed       = "start_booking_failed"
	CodeMissingActiveBooking     = "missing_active_booking"
	CodeSaveContactFailed        = "save_contact_failed"
	CodeBookingProcessingFailed  = "booking_processing_failed"
	CodeInvalidState             = "invalid_state"
	CodeActionInFlight           = "action_in_flight"
	CodeUnknownService           = "unknown_service"
)

const (
	msgConfigurationUnavailable = "Online booking is temporarily unavailable."
	msgStartBookingFailed       = "We couldn't start your booking. Please try again."
	msgMissingActiveBooking     = "Please choose a service before sharing your details."
	msgSaveContactFailed        = "We couldn't save your details. Please try again."
	msgBookingProcessingFailed  = "We couldn't complete your booking. Please try again."
	msgActionInFlight           = "Your previous request is still being processed."
	msgUnknownService           = "That service is not available."
)

// errActionInFlight rejects a duplicate of an action already running elsewhere.
func errActionInFlight() *apperr.Error {
	return apperr.Conflict(msgActionInFlight).WithCode(CodeActionInFlight)
}

func errMissingActiveBooking() *apperr.Error {
	return apperr.Conflict(msgMissingActiveBooking).WithCode(CodeMissingActiveBooking)
}

func errInvalidState(action string, state State) *apperr.Error {
	return apperr.Conflict(action+" is not allowed in state "+string(state)).
		WithCode(CodeInvalidState).
		WithOp(action)
}

func errUnknownService() *apperr.Error {
	return apperr.Validation(msgUnknownService).WithCode(CodeUnknownService)
}

// remoteFailure wraps a collaborator error under a stable code. Validation
// messages from the collaborator are kept verbatim when preferServerMessage is set.
func remoteFailure(code, friendly string, preferServerMessage bool, err error) *apperr.Error {
	if preferServerMessage {
		if remote, ok := apperr.As(err); ok && remote.Message != "" && !remote.Retryable() {
			kind := remote.Kind
			if kind == apperr.KindUnknown {
				kind = apperr.KindValidation
			}
			return apperr.Wrap(kind, remote.Message, err).WithCode(code)
		}
	}
	return apperr.Wrap(apperr.KindUnavailable, friendly, err).WithCode(code)
}

// toActionError converts an action failure into the session's visible error.
func toActionError(err error) *ActionError {
	e, ok := apperr.As(err)
	if !ok {
		return &ActionError{Code: CodeBookingProcessingFailed, Message: msgBookingProcessingFailed, Retryable: true}
	}
	return &ActionError{Code: e.Code, Message: e.Message, Retryable: e.Retryable()}
}

// isCanceled reports whether the caller abandoned the call. Cancellation is
// a no-op for the session, not a failure.
func isCanceled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled)
}
