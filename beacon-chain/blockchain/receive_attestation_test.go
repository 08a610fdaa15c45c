package blockchain

import (
	"context"
	"testing"

	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/testutil"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
)

func TestService_ReceiveAttestationOK(t *testing.T) {
	ctx := context.Background()
	s, genesisState, privKeys := setupService(t)
	anchorRoot := s.HeadRoot()

	atts, err := testutil.GenerateAttestations(genesisState, privKeys, 1, 0)
	require.NoError(t, err)

	// Votes only count from the slot after the one they attest to.
	s.onTick(ctx, 1)
	require.NoError(t, s.ReceiveAttestation(ctx, atts[0]))

	assert.DeepEqual(t, anchorRoot, s.HeadRoot())
}

func TestService_ReceiveAttestationNil(t *testing.T) {
	s, _, _ := setupService(t)

	err := s.ReceiveAttestation(context.Background(), nil)
	assert.ErrorContains(t, "nil attestation", err)
}

func TestService_ReceiveAttestationBadSignature(t *testing.T) {
	ctx := context.Background()
	s, genesisState, privKeys := setupService(t)

	atts, err := testutil.GenerateAttestations(genesisState, privKeys, 1, 0)
	require.NoError(t, err)
	atts[0].Signature = bytesutil.PadTo([]byte{'x'}, 96)

	s.onTick(ctx, 1)
	err = s.ReceiveAttestation(ctx, atts[0])
	assert.ErrorContains(t, "could not process attestation", err)
}
