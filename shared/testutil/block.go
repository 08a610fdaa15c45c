package testutil

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/sirupsen/logrus"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/shared/attestationutil"
	"github.com/zephyrchain/zephyr/shared/bls"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/rand"
	"github.com/zephyrchain/zephyr/types"
)

var log = logrus.WithField("prefix", "testutil")

// BlockGenConfig is used to define the requested conditions
// for block generation.
type BlockGenConfig struct {
	NumProposerSlashings uint64
	NumAttesterSlashings uint64
	NumAttestations      uint64
	NumDeposits          uint64
	NumVoluntaryExits    uint64
}

// DefaultBlockGenConfig returns the block config that utilizes the
// current params in the beacon config.
func DefaultBlockGenConfig() *BlockGenConfig {
	return &BlockGenConfig{
		NumProposerSlashings: 0,
		NumAttesterSlashings: 0,
		NumAttestations:      1,
		NumDeposits:          0,
		NumVoluntaryExits:    0,
	}
}

// GenerateFullBlock generates a fully valid block with the requested parameters.
// Use BlockGenConfig to declare the conditions you would like the block generated under.
// Operations are built against the state as given, so a block crossing an epoch
// boundary should be generated from a state already advanced into the target epoch.
func GenerateFullBlock(
	bState *types.BeaconState,
	privs []bls.SecretKey,
	conf *BlockGenConfig,
	slot uint64,
) (*types.SignedBeaconBlock, error) {
	currentSlot := bState.Slot
	if currentSlot > slot {
		return nil, fmt.Errorf("current slot in state is larger than given slot. %d > %d", currentSlot, slot)
	}
	bState = copyutil.CopyBeaconState(bState)

	if conf == nil {
		conf = &BlockGenConfig{}
	}

	var err error
	pSlashings := []*types.ProposerSlashing{}
	numToGen := conf.NumProposerSlashings
	if numToGen > 0 {
		pSlashings, err = generateProposerSlashings(bState, privs, numToGen)
		if err != nil {
			return nil, errors.Wrapf(err, "failed generating %d proposer slashings:", numToGen)
		}
	}

	numToGen = conf.NumAttesterSlashings
	aSlashings := []*types.AttesterSlashing{}
	if numToGen > 0 {
		aSlashings, err = generateAttesterSlashings(bState, privs, numToGen)
		if err != nil {
			return nil, errors.Wrapf(err, "failed generating %d attester slashings:", numToGen)
		}
	}

	numToGen = conf.NumAttestations
	atts := []*types.Attestation{}
	if numToGen > 0 {
		// Attestations vote the pre-block slot so the minimum inclusion delay
		// is satisfied when the block containing them is processed.
		atts, err = GenerateAttestations(bState, privs, numToGen, currentSlot)
		if err != nil {
			return nil, errors.Wrapf(err, "failed generating %d attestations:", numToGen)
		}
	}

	numToGen = conf.NumDeposits
	newDeposits := []*types.Deposit{}
	eth1Data := copyutil.CopyETH1Data(bState.Eth1Data)
	if numToGen > 0 {
		newDeposits, eth1Data, err = generateDepositsAndEth1Data(bState, numToGen)
		if err != nil {
			return nil, errors.Wrapf(err, "failed generating %d deposits:", numToGen)
		}
	}

	numToGen = conf.NumVoluntaryExits
	exits := []*types.SignedVoluntaryExit{}
	if numToGen > 0 {
		exits, err = generateVoluntaryExits(bState, privs, numToGen)
		if err != nil {
			return nil, errors.Wrapf(err, "failed generating %d voluntary exits:", numToGen)
		}
	}

	parentRoot, err := HeadRootOf(bState)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute parent root")
	}

	if slot == currentSlot {
		slot = currentSlot + 1
	}

	// Temporarily incrementing the beacon state slot here since BeaconProposerIndex
	// is a function deterministic on beacon state slot.
	bState.Slot = slot
	reveal, err := RandaoReveal(bState, helpers.CurrentEpoch(bState), privs)
	if err != nil {
		return nil, errors.Wrap(err, "could not compute randao reveal")
	}
	bState.Slot = currentSlot

	block := &types.BeaconBlock{
		Slot:       slot,
		ParentRoot: parentRoot,
		Body: &types.BeaconBlockBody{
			Eth1Data:          eth1Data,
			RandaoReveal:      reveal,
			Graffiti:          make([]byte, 32),
			ProposerSlashings: pSlashings,
			AttesterSlashings: aSlashings,
			Attestations:      atts,
			Deposits:          newDeposits,
			VoluntaryExits:    exits,
		},
	}

	signature, err := BlockSignature(bState, block, privs)
	if err != nil {
		return nil, errors.Wrap(err, "could not sign block")
	}

	return &types.SignedBeaconBlock{Block: block, Signature: signature.Marshal()}, nil
}

func generateProposerSlashings(
	bState *types.BeaconState,
	privs []bls.SecretKey,
	numSlashings uint64,
) ([]*types.ProposerSlashing, error) {
	currentEpoch := helpers.CurrentEpoch(bState)

	proposerSlashings := make([]*types.ProposerSlashing, numSlashings)
	for i := uint64(0); i < numSlashings; i++ {
		proposerIndex, err := randValIndex(bState)
		if err != nil {
			return nil, err
		}
		header1 := &types.SignedBeaconBlockHeader{
			Header: &types.BeaconBlockHeader{
				Slot:       bState.Slot,
				ParentRoot: make([]byte, 32),
				StateRoot:  make([]byte, 32),
				BodyRoot:   bytesutil.PadTo([]byte{0, 1, 0}, 32),
			},
		}
		header2 := &types.SignedBeaconBlockHeader{
			Header: &types.BeaconBlockHeader{
				Slot:       bState.Slot,
				ParentRoot: make([]byte, 32),
				StateRoot:  make([]byte, 32),
				BodyRoot:   bytesutil.PadTo([]byte{0, 2, 0}, 32),
			},
		}
		domain := helpers.Domain(bState.Fork, currentEpoch, params.BeaconConfig().DomainBeaconProposer)
		for _, signedHeader := range []*types.SignedBeaconBlockHeader{header1, header2} {
			root, err := helpers.ComputeSigningRoot(signedHeader.Header, domain)
			if err != nil {
				return nil, errors.Wrap(err, "could not compute signing root of header")
			}
			signedHeader.Signature = privs[proposerIndex].Sign(root[:]).Marshal()
		}

		proposerSlashings[i] = &types.ProposerSlashing{
			ProposerIndex: proposerIndex,
			Header1:       header1,
			Header2:       header2,
		}
	}
	return proposerSlashings, nil
}

func generateAttesterSlashings(
	bState *types.BeaconState,
	privs []bls.SecretKey,
	numSlashings uint64,
) ([]*types.AttesterSlashing, error) {
	ctx := context.Background()
	currentEpoch := helpers.CurrentEpoch(bState)
	randGen := rand.NewDeterministicGenerator()

	attesterSlashings := make([]*types.AttesterSlashing, numSlashings)
	for i := uint64(0); i < numSlashings; i++ {
		committeeIndex := randGen.Uint64() % helpers.CommitteeCountAtSlot(bState, bState.Slot)
		committee, err := helpers.BeaconCommittee(bState, bState.Slot, committeeIndex)
		if err != nil {
			return nil, err
		}
		randIndex := randGen.Uint64() % uint64(len(committee))
		valIndex := committee[randIndex]

		aggregationBits := bitfield.NewBitlist(uint64(len(committee)))
		aggregationBits.SetBitAt(randIndex, true)
		att1 := &types.Attestation{
			Data: &types.AttestationData{
				Slot:            bState.Slot,
				CommitteeIndex:  committeeIndex,
				BeaconBlockRoot: make([]byte, 32),
				Target: &types.Checkpoint{
					Epoch: currentEpoch,
					Root:  params.BeaconConfig().ZeroHash[:],
				},
				Source: &types.Checkpoint{
					Epoch: currentEpoch + 1,
					Root:  params.BeaconConfig().ZeroHash[:],
				},
			},
			AggregationBits: aggregationBits,
		}
		domain := helpers.Domain(bState.Fork, currentEpoch, params.BeaconConfig().DomainBeaconAttester)
		root, err := helpers.ComputeSigningRoot(att1.Data, domain)
		if err != nil {
			return nil, errors.Wrap(err, "could not compute signing root of attestation data")
		}
		att1.Signature = privs[valIndex].Sign(root[:]).Marshal()

		att2 := &types.Attestation{
			Data: &types.AttestationData{
				Slot:            bState.Slot,
				CommitteeIndex:  committeeIndex,
				BeaconBlockRoot: make([]byte, 32),
				Target: &types.Checkpoint{
					Epoch: currentEpoch,
					Root:  params.BeaconConfig().ZeroHash[:],
				},
				Source: &types.Checkpoint{
					Epoch: currentEpoch,
					Root:  params.BeaconConfig().ZeroHash[:],
				},
			},
			AggregationBits: aggregationBits,
		}
		root, err = helpers.ComputeSigningRoot(att2.Data, domain)
		if err != nil {
			return nil, errors.Wrap(err, "could not compute signing root of attestation data")
		}
		att2.Signature = privs[valIndex].Sign(root[:]).Marshal()

		attesterSlashings[i] = &types.AttesterSlashing{
			Attestation1: attestationutil.ConvertToIndexed(ctx, att1, committee),
			Attestation2: attestationutil.ConvertToIndexed(ctx, att2, committee),
		}
	}
	return attesterSlashings, nil
}

// GenerateAttestations creates attestations that are entirely valid, for all
// the committees at the requested slot. If numToGen is above the committee
// count, committees are split into multiple attestations with the aggregation
// bits divided among them.
func GenerateAttestations(
	bState *types.BeaconState,
	privs []bls.SecretKey,
	numToGen uint64,
	slot uint64,
) ([]*types.Attestation, error) {
	currentEpoch := helpers.SlotToEpoch(slot)
	attestations := []*types.Attestation{}

	headRoot, err := HeadRootOf(bState)
	if err != nil {
		return nil, err
	}
	targetRoot := headRoot
	epochStartSlot := helpers.StartSlot(currentEpoch)
	if slot != epochStartSlot && epochStartSlot < bState.Slot {
		targetRoot, err = helpers.BlockRootAtSlot(bState, epochStartSlot)
		if err != nil {
			return nil, errors.Wrapf(err, "could not get target root for epoch %d", currentEpoch)
		}
	}

	var source *types.Checkpoint
	if currentEpoch == helpers.CurrentEpoch(bState) {
		source = copyutil.CopyCheckpoint(bState.CurrentJustifiedCheckpoint)
	} else {
		source = copyutil.CopyCheckpoint(bState.PreviousJustifiedCheckpoint)
	}

	committeesPerSlot := helpers.CommitteeCountAtSlot(bState, slot)
	if numToGen < committeesPerSlot {
		log.Infof(
			"Only %d attestations requested for %d committees in slot %d, not all validators will be attesting",
			numToGen, committeesPerSlot, slot,
		)
	}

	attsPerCommittee := math.Max(float64(numToGen/committeesPerSlot), 1)
	if math.Trunc(attsPerCommittee) != attsPerCommittee {
		return nil, fmt.Errorf(
			"requested attestations %d must be easily divisible by committees in slot %d, calculated %f",
			numToGen, committeesPerSlot, attsPerCommittee,
		)
	}

	domain := helpers.Domain(bState.Fork, currentEpoch, params.BeaconConfig().DomainBeaconAttester)
	for c := uint64(0); c < committeesPerSlot && c < numToGen; c++ {
		committee, err := helpers.BeaconCommittee(bState, slot, c)
		if err != nil {
			return nil, err
		}

		attData := &types.AttestationData{
			Slot:            slot,
			CommitteeIndex:  c,
			BeaconBlockRoot: headRoot,
			Source:          source,
			Target: &types.Checkpoint{
				Epoch: currentEpoch,
				Root:  targetRoot,
			},
		}

		dataRoot, err := helpers.ComputeSigningRoot(attData, domain)
		if err != nil {
			return nil, errors.Wrap(err, "could not compute signing root of attestation data")
		}

		committeeSize := uint64(len(committee))
		bitsPerAtt := committeeSize / uint64(attsPerCommittee)
		for i := uint64(0); i < committeeSize; i += bitsPerAtt {
			aggregationBits := bitfield.NewBitlist(committeeSize)
			sigs := []bls.Signature{}
			for b := i; b < i+bitsPerAtt && b < committeeSize; b++ {
				aggregationBits.SetBitAt(b, true)
				sigs = append(sigs, privs[committee[b]].Sign(dataRoot[:]))
			}

			attestations = append(attestations, &types.Attestation{
				Data:            attData,
				AggregationBits: aggregationBits,
				Signature:       bls.AggregateSignatures(sigs).Marshal(),
			})
		}
	}
	return attestations, nil
}

func generateDepositsAndEth1Data(
	bState *types.BeaconState,
	numDeposits uint64,
) ([]*types.Deposit, *types.Eth1Data, error) {
	previousDepsLen := bState.Eth1DepositIndex
	currentDeposits, _, err := DeterministicDepositsAndKeys(previousDepsLen + numDeposits)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not get deposits")
	}
	eth1Data, err := DeterministicEth1Data(len(currentDeposits))
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not get eth1data")
	}
	return currentDeposits[previousDepsLen:], eth1Data, nil
}

func generateVoluntaryExits(
	bState *types.BeaconState,
	privs []bls.SecretKey,
	numExits uint64,
) ([]*types.SignedVoluntaryExit, error) {
	exits := make([]*types.SignedVoluntaryExit, numExits)
	for i := uint64(0); i < numExits; i++ {
		valIndex, err := randValIndex(bState)
		if err != nil {
			return nil, err
		}
		exit := &types.SignedVoluntaryExit{
			Exit: &types.VoluntaryExit{
				Epoch:          helpers.PrevEpoch(bState),
				ValidatorIndex: valIndex,
			},
		}
		domain := helpers.Domain(bState.Fork, exit.Exit.Epoch, params.BeaconConfig().DomainVoluntaryExit)
		root, err := helpers.ComputeSigningRoot(exit.Exit, domain)
		if err != nil {
			return nil, errors.Wrap(err, "could not compute signing root of exit")
		}
		exit.Signature = privs[valIndex].Sign(root[:]).Marshal()
		exits[i] = exit
	}
	return exits, nil
}

func randValIndex(bState *types.BeaconState) (uint64, error) {
	activeCount := helpers.ActiveValidatorCount(bState, helpers.CurrentEpoch(bState))
	if activeCount == 0 {
		return 0, errors.New("no active validators in state")
	}
	return rand.NewDeterministicGenerator().Uint64() % activeCount, nil
}
