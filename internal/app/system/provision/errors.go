// internal/app/system/provision/errors.go
package provision

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports a missing or invalid input field. It is returned
// before any external call is made, so nothing has been created anywhere.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ExternalServiceError reports that the billing gateway was unreachable or
// returned an error. No local record has been persisted.
type ExternalServiceError struct {
	Err error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("billing gateway: %v", e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ProvisioningError reports that local persistence failed after the billing
// customer was already created. StripeCustomerID identifies the external
// record; Compensated is true when the compensating delete succeeded, false
// when the customer is orphaned and needs reconciliation.
type ProvisioningError struct {
	StripeCustomerID string
	Compensated      bool
	Err              error
}

func (e *ProvisioningError) Error() string {
	if e.Compensated {
		return fmt.Sprintf("could not create organization (billing customer %s removed): %v", e.StripeCustomerID, e.Err)
	}
	return fmt.Sprintf("could not create organization (billing customer %s orphaned): %v", e.StripeCustomerID, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// StatusCode maps a provisioning failure to the HTTP status a caller should
// report. Unknown errors map to 500.
func StatusCode(err error) int {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	var ese *ExternalServiceError
	if errors.As(err, &ese) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
