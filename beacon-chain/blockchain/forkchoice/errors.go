package forkchoice

import "github.com/pkg/errors"

var (
	// ErrNotDescendantOfFinalized is returned when a block does not descend
	// from the finalized checkpoint and can never become canonical.
	ErrNotDescendantOfFinalized = errors.New("block is not a descendant of the current finalized block")

	// ErrTargetEpochMismatch is returned when an attestation's target epoch
	// does not match the epoch its slot belongs to.
	ErrTargetEpochMismatch = errors.New("attestation target epoch does not match the epoch of its slot")

	// ErrAttestationForFutureBlock is returned when an attestation votes for
	// a block from a slot later than the attestation's own slot.
	ErrAttestationForFutureBlock = errors.New("attestation references a block newer than the attestation slot")

	// errUnknownBlock marks ancestry walks that ran off the known block tree.
	errUnknownBlock = errors.New("block does not exist in the store")
)
