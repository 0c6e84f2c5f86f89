package walk

import "backend-dogwalk/internal/shared/fault"

var (
	ErrOutOfOrderSample = fault.New(fault.CategorySequencing, "location_out_of_order",
		"location sample is older than the last accepted sample")

	ErrPhotoSize = fault.New(fault.CategoryValidation, "photo_size_invalid",
		"photo size is outside the accepted range")
	ErrPhotoCapacity = fault.New(fault.CategoryCapacity, "photo_capacity_exceeded",
		"session photo limit reached")

	ErrWalkerNotVerified = fault.New(fault.CategoryAuthorization, "walker_not_verified",
		"walker is not verified")
	ErrAlreadyInProgress = fault.New(fault.CategoryState, "already_in_progress",
		"walk can only be started from scheduled")

	ErrSessionClosed = fault.New(fault.CategoryState, "session_closed",
		"walk session already ended")
)
