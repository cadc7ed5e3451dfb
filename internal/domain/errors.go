package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters fail validation
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrQueryTooShort is returned when a search query is below the minimum length
	ErrQueryTooShort = errors.New("search query too short")

	// ErrFoodNotFound is returned when no source can supply the requested item
	ErrFoodNotFound = errors.New("food item not found")

	// ErrEntryNotFound is returned when a diary entry does not exist for the user
	ErrEntryNotFound = errors.New("food entry not found")

	// ErrAdapterFailure is returned when a provider request fails
	ErrAdapterFailure = errors.New("provider request failed")

	// ErrStoreUnavailable is returned when the persistence layer cannot be reached
	ErrStoreUnavailable = errors.New("food store unavailable")
)
