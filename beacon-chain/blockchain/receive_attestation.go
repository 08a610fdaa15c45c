package blockchain

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zephyrchain/zephyr/types"
	"go.opencensus.io/trace"
)

// AttestationReceiver interface defines the methods of chain service for
// receiving new attestations.
type AttestationReceiver interface {
	ReceiveAttestation(ctx context.Context, att *types.Attestation) error
}

// ReceiveAttestation applies the fork choice attestation handler and refreshes
// the cached head, new votes can move it.
func (s *Service) ReceiveAttestation(ctx context.Context, att *types.Attestation) error {
	ctx, span := trace.StartSpan(ctx, "blockchain.ReceiveAttestation")
	defer span.End()

	if err := s.store.OnAttestation(ctx, att); err != nil {
		return errors.Wrap(err, "could not process attestation")
	}
	processedAttCount.Inc()

	if err := s.updateHead(ctx); err != nil {
		log.WithError(err).Warn("Could not update head")
	}
	return nil
}
