package capacity

import "backend-dogwalk/internal/shared/fault"

// Acceptance errors, in the order CanAccept evaluates them.
var (
	ErrNotAvailable = fault.New(fault.CategoryState, "walker_not_available",
		"walker is not taking new walks")
	ErrCapacityExceeded = fault.New(fault.CategoryCapacity, "walker_capacity_exceeded",
		"walker already has the maximum number of walks")
	ErrBackgroundCheckInvalid = fault.New(fault.CategoryAuthorization, "background_check_invalid",
		"walker background check is not valid")
	ErrInsuranceInvalid = fault.New(fault.CategoryAuthorization, "insurance_invalid",
		"walker insurance is not valid")
	ErrServiceAreaInvalid = fault.New(fault.CategoryValidation, "service_area_invalid",
		"walker service area is not configured")
	ErrDetailsIncomplete = fault.New(fault.CategoryValidation, "details_incomplete",
		"walk details are missing")

	ErrSessionIDRequired = fault.New(fault.CategoryValidation, "session_id_required",
		"session id is required")
)
