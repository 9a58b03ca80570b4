// Package errs provides the error taxonomy of the pharmacy order core.
//
// Validation family (rejected before any state change):
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError
//
// Lookup:
//   - ObjectNotFoundError
//
// Order and checkout outcomes:
//   - NotServiceableError: destination beyond the delivery radius or outside the service area
//   - ConflictError: optimistic version check failed; retry against fresh state
//   - StateViolationError: refused transition, reported to the caller and never retried
//   - ExternalServiceError: routing/geocoding/gateway failure, degraded to a fallback where one exists
//
// Each type pairs a sentinel (ErrX) with a struct carrying details, so callers may use
// either errors.Is against the sentinel or errors.As against the struct.
package errs
