package hatchwatch

import "errors"

var (
	// ErrInvalidMessage indicates a feed message that does not satisfy envelope invariants.
	ErrInvalidMessage = errors.New("hatchwatch: invalid feed message")
	// ErrSubscriberClosed indicates a push attempt on a subscriber that is no longer open.
	ErrSubscriberClosed = errors.New("hatchwatch: subscriber closed")
	// ErrHubClosed indicates an operation on a hub that has been shut down.
	ErrHubClosed = errors.New("hatchwatch: hub closed")
	// ErrDriverAlreadyRegistered indicates duplicate driver type registration.
	ErrDriverAlreadyRegistered = errors.New("hatchwatch: driver already registered")
	// ErrUnknownDriver indicates a driver type lookup miss.
	ErrUnknownDriver = errors.New("hatchwatch: unknown driver type")
)
