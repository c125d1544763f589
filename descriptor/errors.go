package descriptor

import "errors"

var (
	// ErrInvalidArgument is returned when a descriptor is requested with
	// arguments that can never identify a real board or thread.
	ErrInvalidArgument = errors.New("invalid descriptor argument")

	// ErrDescriptorMismatch is returned when a thread descriptor is asked to
	// become a thread descriptor for a different thread number.
	ErrDescriptorMismatch = errors.New("descriptor thread number mismatch")

	// ErrMalformedDescriptor is returned by ParseDescriptor for strings that
	// were not produced by Serialize.
	ErrMalformedDescriptor = errors.New("malformed descriptor")
)
