package copyutil

import (
	"math/rand"
	"testing"

	"github.com/prysmaticlabs/go-bitfield"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
	"github.com/zephyrchain/zephyr/types"
)

func bytes(n int) []byte {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = byte(rand.Intn(255) + 1)
	}
	return b
}

func genEth1Data() *types.Eth1Data {
	return &types.Eth1Data{
		DepositRoot:  bytes(32),
		DepositCount: rand.Uint64(),
		BlockHash:    bytes(32),
	}
}

func genCheckpoint() *types.Checkpoint {
	return &types.Checkpoint{
		Epoch: rand.Uint64(),
		Root:  bytes(32),
	}
}

func genValidator() *types.Validator {
	return &types.Validator{
		PublicKey:                  bytes(48),
		WithdrawalCredentials:      bytes(32),
		EffectiveBalance:           rand.Uint64(),
		Slashed:                    true,
		ActivationEligibilityEpoch: rand.Uint64(),
		ActivationEpoch:            rand.Uint64(),
		ExitEpoch:                  rand.Uint64(),
		WithdrawableEpoch:          rand.Uint64(),
	}
}

func genAttestationData() *types.AttestationData {
	return &types.AttestationData{
		Slot:            rand.Uint64(),
		CommitteeIndex:  rand.Uint64(),
		BeaconBlockRoot: bytes(32),
		Source:          genCheckpoint(),
		Target:          genCheckpoint(),
	}
}

func genAttestation() *types.Attestation {
	return &types.Attestation{
		AggregationBits: bitfield.NewBitlist(8),
		Data:            genAttestationData(),
		Signature:       bytes(96),
	}
}

func genSignedBeaconBlockHeader() *types.SignedBeaconBlockHeader {
	return &types.SignedBeaconBlockHeader{
		Header: &types.BeaconBlockHeader{
			Slot:       rand.Uint64(),
			ParentRoot: bytes(32),
			StateRoot:  bytes(32),
			BodyRoot:   bytes(32),
		},
		Signature: bytes(96),
	}
}

func genSignedBeaconBlock() *types.SignedBeaconBlock {
	return &types.SignedBeaconBlock{
		Block: &types.BeaconBlock{
			Slot:       rand.Uint64(),
			ParentRoot: bytes(32),
			StateRoot:  bytes(32),
			Body: &types.BeaconBlockBody{
				RandaoReveal: bytes(96),
				Eth1Data:     genEth1Data(),
				Graffiti:     bytes(32),
				ProposerSlashings: []*types.ProposerSlashing{
					{
						ProposerIndex: rand.Uint64(),
						Header1:       genSignedBeaconBlockHeader(),
						Header2:       genSignedBeaconBlockHeader(),
					},
				},
				AttesterSlashings: []*types.AttesterSlashing{
					{
						Attestation1: &types.IndexedAttestation{
							AttestingIndices: []uint64{1, 2, 3},
							Data:             genAttestationData(),
							Signature:        bytes(96),
						},
						Attestation2: &types.IndexedAttestation{
							AttestingIndices: []uint64{4, 5, 6},
							Data:             genAttestationData(),
							Signature:        bytes(96),
						},
					},
				},
				Attestations: []*types.Attestation{genAttestation()},
				Deposits: []*types.Deposit{
					{
						Proof: [][]byte{bytes(32), bytes(32)},
						Data: &types.DepositData{
							PublicKey:             bytes(48),
							WithdrawalCredentials: bytes(32),
							Amount:                rand.Uint64(),
							Signature:             bytes(96),
						},
					},
				},
				VoluntaryExits: []*types.SignedVoluntaryExit{
					{
						Exit: &types.VoluntaryExit{
							Epoch:          rand.Uint64(),
							ValidatorIndex: rand.Uint64(),
						},
						Signature: bytes(96),
					},
				},
			},
		},
		Signature: bytes(96),
	}
}

func TestCopyETH1Data(t *testing.T) {
	data := genEth1Data()
	got := CopyETH1Data(data)
	require.DeepEqual(t, data, got)
	got.DepositRoot[0] ^= 0xff
	assert.DeepNotEqual(t, data.DepositRoot, got.DepositRoot, "Copy shares the deposit root slice")
}

func TestCopyFork(t *testing.T) {
	fork := &types.Fork{
		PreviousVersion: bytes(4),
		CurrentVersion:  bytes(4),
		Epoch:           rand.Uint64(),
	}
	got := CopyFork(fork)
	require.DeepEqual(t, fork, got)
	got.CurrentVersion[0] ^= 0xff
	assert.DeepNotEqual(t, fork.CurrentVersion, got.CurrentVersion, "Copy shares the version slice")
}

func TestCopyCheckpoint(t *testing.T) {
	cp := genCheckpoint()
	got := CopyCheckpoint(cp)
	require.DeepEqual(t, cp, got)
	got.Root[0] ^= 0xff
	assert.DeepNotEqual(t, cp.Root, got.Root, "Copy shares the root slice")
}

func TestCopyValidator(t *testing.T) {
	val := genValidator()
	got := CopyValidator(val)
	require.DeepEqual(t, val, got)
	got.PublicKey[0] ^= 0xff
	assert.DeepNotEqual(t, val.PublicKey, got.PublicKey, "Copy shares the pubkey slice")
}

func TestCopyAttestation(t *testing.T) {
	att := genAttestation()
	got := CopyAttestation(att)
	require.DeepEqual(t, att, got)
	got.AggregationBits.SetBitAt(2, true)
	assert.DeepNotEqual(t, att.AggregationBits, got.AggregationBits, "Copy shares the aggregation bits")
	got.Data.Source.Root[0] ^= 0xff
	assert.DeepNotEqual(t, att.Data.Source.Root, got.Data.Source.Root, "Copy shares the source root")
}

func TestCopySignedBeaconBlock(t *testing.T) {
	blk := genSignedBeaconBlock()
	got := CopySignedBeaconBlock(blk)
	require.DeepEqual(t, blk, got)
	got.Block.Body.Deposits[0].Proof[0][0] ^= 0xff
	assert.DeepNotEqual(t, blk.Block.Body.Deposits[0].Proof, got.Block.Body.Deposits[0].Proof, "Copy shares the deposit proof")
}

func TestCopySignedBeaconBlock_NilFields(t *testing.T) {
	assert.Equal(t, (*types.SignedBeaconBlock)(nil), CopySignedBeaconBlock(nil))
	got := CopySignedBeaconBlock(&types.SignedBeaconBlock{Signature: bytes(96)})
	require.NotNil(t, got)
	assert.Equal(t, (*types.BeaconBlock)(nil), got.Block)
}

func TestCopyBeaconState(t *testing.T) {
	st := &types.BeaconState{
		GenesisTime: rand.Uint64(),
		Slot:        rand.Uint64(),
		Fork: &types.Fork{
			PreviousVersion: bytes(4),
			CurrentVersion:  bytes(4),
			Epoch:           rand.Uint64(),
		},
		LatestBlockHeader: &types.BeaconBlockHeader{
			Slot:       rand.Uint64(),
			ParentRoot: bytes(32),
			StateRoot:  bytes(32),
			BodyRoot:   bytes(32),
		},
		BlockRoots:       [][]byte{bytes(32), bytes(32)},
		StateRoots:       [][]byte{bytes(32), bytes(32)},
		HistoricalRoots:  [][]byte{bytes(32)},
		Eth1Data:         genEth1Data(),
		Eth1DataVotes:    []*types.Eth1Data{genEth1Data()},
		Eth1DepositIndex: rand.Uint64(),
		Validators:       []*types.Validator{genValidator(), genValidator()},
		Balances:         []uint64{rand.Uint64(), rand.Uint64()},
		RandaoMixes:      [][]byte{bytes(32), bytes(32)},
		Slashings:        []uint64{rand.Uint64()},
		PreviousEpochAttestations: []*types.PendingAttestation{
			{
				AggregationBits: bitfield.NewBitlist(8),
				Data:            genAttestationData(),
				InclusionDelay:  rand.Uint64(),
				ProposerIndex:   rand.Uint64(),
			},
		},
		CurrentEpochAttestations: []*types.PendingAttestation{
			{
				AggregationBits: bitfield.NewBitlist(8),
				Data:            genAttestationData(),
				InclusionDelay:  rand.Uint64(),
				ProposerIndex:   rand.Uint64(),
			},
		},
		JustificationBits:           bitfield.Bitvector4{0x0f},
		PreviousJustifiedCheckpoint: genCheckpoint(),
		CurrentJustifiedCheckpoint:  genCheckpoint(),
		FinalizedCheckpoint:         genCheckpoint(),
	}
	got := CopyBeaconState(st)
	require.DeepEqual(t, st, got)

	got.Validators[0].EffectiveBalance++
	assert.DeepNotEqual(t, st.Validators[0], got.Validators[0], "Copy shares validator objects")
	got.Balances[0]++
	assert.DeepNotEqual(t, st.Balances, got.Balances, "Copy shares the balances slice")
	got.RandaoMixes[0][0] ^= 0xff
	assert.DeepNotEqual(t, st.RandaoMixes, got.RandaoMixes, "Copy shares the randao mixes")
	got.JustificationBits.SetBitAt(0, false)
	assert.DeepNotEqual(t, st.JustificationBits, got.JustificationBits, "Copy shares the justification bits")
	got.FinalizedCheckpoint.Epoch++
	assert.DeepNotEqual(t, st.FinalizedCheckpoint, got.FinalizedCheckpoint, "Copy shares the finalized checkpoint")
}
