// Package copyutil defines deep copy helpers for the consensus containers.
// Transition functions mutate states in place, so every caller that needs the
// pre-state afterwards must copy first.
package copyutil

import (
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/types"
)

// CopyETH1Data copies the provided eth1data object.
func CopyETH1Data(data *types.Eth1Data) *types.Eth1Data {
	if data == nil {
		return nil
	}
	return &types.Eth1Data{
		DepositRoot:  bytesutil.SafeCopyBytes(data.DepositRoot),
		DepositCount: data.DepositCount,
		BlockHash:    bytesutil.SafeCopyBytes(data.BlockHash),
	}
}

// CopyETH1DataVotes copies the provided list of eth1data objects.
func CopyETH1DataVotes(votes []*types.Eth1Data) []*types.Eth1Data {
	if votes == nil {
		return nil
	}
	newVotes := make([]*types.Eth1Data, len(votes))
	for i, vote := range votes {
		newVotes[i] = CopyETH1Data(vote)
	}
	return newVotes
}

// CopyFork copies the provided fork object.
func CopyFork(fork *types.Fork) *types.Fork {
	if fork == nil {
		return nil
	}
	return &types.Fork{
		PreviousVersion: bytesutil.SafeCopyBytes(fork.PreviousVersion),
		CurrentVersion:  bytesutil.SafeCopyBytes(fork.CurrentVersion),
		Epoch:           fork.Epoch,
	}
}

// CopyCheckpoint copies the provided checkpoint object.
func CopyCheckpoint(cp *types.Checkpoint) *types.Checkpoint {
	if cp == nil {
		return nil
	}
	return &types.Checkpoint{
		Epoch: cp.Epoch,
		Root:  bytesutil.SafeCopyBytes(cp.Root),
	}
}

// CopyValidator copies the provided validator object.
func CopyValidator(val *types.Validator) *types.Validator {
	if val == nil {
		return nil
	}
	return &types.Validator{
		PublicKey:                  bytesutil.SafeCopyBytes(val.PublicKey),
		WithdrawalCredentials:      bytesutil.SafeCopyBytes(val.WithdrawalCredentials),
		EffectiveBalance:           val.EffectiveBalance,
		Slashed:                    val.Slashed,
		ActivationEligibilityEpoch: val.ActivationEligibilityEpoch,
		ActivationEpoch:            val.ActivationEpoch,
		ExitEpoch:                  val.ExitEpoch,
		WithdrawableEpoch:          val.WithdrawableEpoch,
	}
}

// CopyBeaconBlockHeader copies the provided header object.
func CopyBeaconBlockHeader(header *types.BeaconBlockHeader) *types.BeaconBlockHeader {
	if header == nil {
		return nil
	}
	return &types.BeaconBlockHeader{
		Slot:       header.Slot,
		ParentRoot: bytesutil.SafeCopyBytes(header.ParentRoot),
		StateRoot:  bytesutil.SafeCopyBytes(header.StateRoot),
		BodyRoot:   bytesutil.SafeCopyBytes(header.BodyRoot),
	}
}

// CopySignedBeaconBlockHeader copies the provided signed header object.
func CopySignedBeaconBlockHeader(header *types.SignedBeaconBlockHeader) *types.SignedBeaconBlockHeader {
	if header == nil {
		return nil
	}
	return &types.SignedBeaconBlockHeader{
		Header:    CopyBeaconBlockHeader(header.Header),
		Signature: bytesutil.SafeCopyBytes(header.Signature),
	}
}

// CopyAttestationData copies the provided attestation data object.
func CopyAttestationData(data *types.AttestationData) *types.AttestationData {
	if data == nil {
		return nil
	}
	return &types.AttestationData{
		Slot:            data.Slot,
		CommitteeIndex:  data.CommitteeIndex,
		BeaconBlockRoot: bytesutil.SafeCopyBytes(data.BeaconBlockRoot),
		Source:          CopyCheckpoint(data.Source),
		Target:          CopyCheckpoint(data.Target),
	}
}

// CopyAttestation copies the provided attestation object.
func CopyAttestation(att *types.Attestation) *types.Attestation {
	if att == nil {
		return nil
	}
	return &types.Attestation{
		AggregationBits: bitfield.Bitlist(bytesutil.SafeCopyBytes(att.AggregationBits)),
		Data:            CopyAttestationData(att.Data),
		Signature:       bytesutil.SafeCopyBytes(att.Signature),
	}
}

// CopyAttestations copies the provided list of attestation objects.
func CopyAttestations(atts []*types.Attestation) []*types.Attestation {
	if atts == nil {
		return nil
	}
	newAtts := make([]*types.Attestation, len(atts))
	for i, att := range atts {
		newAtts[i] = CopyAttestation(att)
	}
	return newAtts
}

// CopyIndexedAttestation copies the provided indexed attestation object.
func CopyIndexedAttestation(att *types.IndexedAttestation) *types.IndexedAttestation {
	if att == nil {
		return nil
	}
	var indices []uint64
	if att.AttestingIndices != nil {
		indices = make([]uint64, len(att.AttestingIndices))
		copy(indices, att.AttestingIndices)
	}
	return &types.IndexedAttestation{
		AttestingIndices: indices,
		Data:             CopyAttestationData(att.Data),
		Signature:        bytesutil.SafeCopyBytes(att.Signature),
	}
}

// CopyPendingAttestation copies the provided pending attestation object.
func CopyPendingAttestation(att *types.PendingAttestation) *types.PendingAttestation {
	if att == nil {
		return nil
	}
	return &types.PendingAttestation{
		AggregationBits: bitfield.Bitlist(bytesutil.SafeCopyBytes(att.AggregationBits)),
		Data:            CopyAttestationData(att.Data),
		InclusionDelay:  att.InclusionDelay,
		ProposerIndex:   att.ProposerIndex,
	}
}

// CopyPendingAttestations copies the provided list of pending attestation objects.
func CopyPendingAttestations(atts []*types.PendingAttestation) []*types.PendingAttestation {
	if atts == nil {
		return nil
	}
	newAtts := make([]*types.PendingAttestation, len(atts))
	for i, att := range atts {
		newAtts[i] = CopyPendingAttestation(att)
	}
	return newAtts
}

// CopyProposerSlashing copies the provided proposer slashing object.
func CopyProposerSlashing(slashing *types.ProposerSlashing) *types.ProposerSlashing {
	if slashing == nil {
		return nil
	}
	return &types.ProposerSlashing{
		ProposerIndex: slashing.ProposerIndex,
		Header1:       CopySignedBeaconBlockHeader(slashing.Header1),
		Header2:       CopySignedBeaconBlockHeader(slashing.Header2),
	}
}

// CopyProposerSlashings copies the provided list of proposer slashing objects.
func CopyProposerSlashings(slashings []*types.ProposerSlashing) []*types.ProposerSlashing {
	if slashings == nil {
		return nil
	}
	newSlashings := make([]*types.ProposerSlashing, len(slashings))
	for i, slashing := range slashings {
		newSlashings[i] = CopyProposerSlashing(slashing)
	}
	return newSlashings
}

// CopyAttesterSlashing copies the provided attester slashing object.
func CopyAttesterSlashing(slashing *types.AttesterSlashing) *types.AttesterSlashing {
	if slashing == nil {
		return nil
	}
	return &types.AttesterSlashing{
		Attestation1: CopyIndexedAttestation(slashing.Attestation1),
		Attestation2: CopyIndexedAttestation(slashing.Attestation2),
	}
}

// CopyAttesterSlashings copies the provided list of attester slashing objects.
func CopyAttesterSlashings(slashings []*types.AttesterSlashing) []*types.AttesterSlashing {
	if slashings == nil {
		return nil
	}
	newSlashings := make([]*types.AttesterSlashing, len(slashings))
	for i, slashing := range slashings {
		newSlashings[i] = CopyAttesterSlashing(slashing)
	}
	return newSlashings
}

// CopyDepositData copies the provided deposit data object.
func CopyDepositData(data *types.DepositData) *types.DepositData {
	if data == nil {
		return nil
	}
	return &types.DepositData{
		PublicKey:             bytesutil.SafeCopyBytes(data.PublicKey),
		WithdrawalCredentials: bytesutil.SafeCopyBytes(data.WithdrawalCredentials),
		Amount:                data.Amount,
		Signature:             bytesutil.SafeCopyBytes(data.Signature),
	}
}

// CopyDeposit copies the provided deposit object.
func CopyDeposit(deposit *types.Deposit) *types.Deposit {
	if deposit == nil {
		return nil
	}
	return &types.Deposit{
		Proof: bytesutil.SafeCopy2dBytes(deposit.Proof),
		Data:  CopyDepositData(deposit.Data),
	}
}

// CopyDeposits copies the provided list of deposit objects.
func CopyDeposits(deposits []*types.Deposit) []*types.Deposit {
	if deposits == nil {
		return nil
	}
	newDeposits := make([]*types.Deposit, len(deposits))
	for i, deposit := range deposits {
		newDeposits[i] = CopyDeposit(deposit)
	}
	return newDeposits
}

// CopySignedVoluntaryExit copies the provided signed voluntary exit object.
func CopySignedVoluntaryExit(exit *types.SignedVoluntaryExit) *types.SignedVoluntaryExit {
	if exit == nil {
		return nil
	}
	newExit := &types.SignedVoluntaryExit{
		Signature: bytesutil.SafeCopyBytes(exit.Signature),
	}
	if exit.Exit != nil {
		newExit.Exit = &types.VoluntaryExit{
			Epoch:          exit.Exit.Epoch,
			ValidatorIndex: exit.Exit.ValidatorIndex,
		}
	}
	return newExit
}

// CopySignedVoluntaryExits copies the provided list of signed voluntary exit objects.
func CopySignedVoluntaryExits(exits []*types.SignedVoluntaryExit) []*types.SignedVoluntaryExit {
	if exits == nil {
		return nil
	}
	newExits := make([]*types.SignedVoluntaryExit, len(exits))
	for i, exit := range exits {
		newExits[i] = CopySignedVoluntaryExit(exit)
	}
	return newExits
}

// CopyBeaconBlockBody copies the provided block body object.
func CopyBeaconBlockBody(body *types.BeaconBlockBody) *types.BeaconBlockBody {
	if body == nil {
		return nil
	}
	return &types.BeaconBlockBody{
		RandaoReveal:      bytesutil.SafeCopyBytes(body.RandaoReveal),
		Eth1Data:          CopyETH1Data(body.Eth1Data),
		Graffiti:          bytesutil.SafeCopyBytes(body.Graffiti),
		ProposerSlashings: CopyProposerSlashings(body.ProposerSlashings),
		AttesterSlashings: CopyAttesterSlashings(body.AttesterSlashings),
		Attestations:      CopyAttestations(body.Attestations),
		Deposits:          CopyDeposits(body.Deposits),
		VoluntaryExits:    CopySignedVoluntaryExits(body.VoluntaryExits),
	}
}

// CopyBeaconBlock copies the provided block object.
func CopyBeaconBlock(block *types.BeaconBlock) *types.BeaconBlock {
	if block == nil {
		return nil
	}
	return &types.BeaconBlock{
		Slot:       block.Slot,
		ParentRoot: bytesutil.SafeCopyBytes(block.ParentRoot),
		StateRoot:  bytesutil.SafeCopyBytes(block.StateRoot),
		Body:       CopyBeaconBlockBody(block.Body),
	}
}

// CopySignedBeaconBlock copies the provided signed block object.
func CopySignedBeaconBlock(sigBlock *types.SignedBeaconBlock) *types.SignedBeaconBlock {
	if sigBlock == nil {
		return nil
	}
	return &types.SignedBeaconBlock{
		Block:     CopyBeaconBlock(sigBlock.Block),
		Signature: bytesutil.SafeCopyBytes(sigBlock.Signature),
	}
}

// CopyBeaconState copies the provided state object.
func CopyBeaconState(state *types.BeaconState) *types.BeaconState {
	if state == nil {
		return nil
	}
	newValidators := make([]*types.Validator, len(state.Validators))
	for i, val := range state.Validators {
		newValidators[i] = CopyValidator(val)
	}
	newBalances := make([]uint64, len(state.Balances))
	copy(newBalances, state.Balances)
	newSlashings := make([]uint64, len(state.Slashings))
	copy(newSlashings, state.Slashings)
	return &types.BeaconState{
		GenesisTime:                 state.GenesisTime,
		Slot:                        state.Slot,
		Fork:                        CopyFork(state.Fork),
		LatestBlockHeader:           CopyBeaconBlockHeader(state.LatestBlockHeader),
		BlockRoots:                  bytesutil.SafeCopy2dBytes(state.BlockRoots),
		StateRoots:                  bytesutil.SafeCopy2dBytes(state.StateRoots),
		HistoricalRoots:             bytesutil.SafeCopy2dBytes(state.HistoricalRoots),
		Eth1Data:                    CopyETH1Data(state.Eth1Data),
		Eth1DataVotes:               CopyETH1DataVotes(state.Eth1DataVotes),
		Eth1DepositIndex:            state.Eth1DepositIndex,
		Validators:                  newValidators,
		Balances:                    newBalances,
		RandaoMixes:                 bytesutil.SafeCopy2dBytes(state.RandaoMixes),
		Slashings:                   newSlashings,
		PreviousEpochAttestations:   CopyPendingAttestations(state.PreviousEpochAttestations),
		CurrentEpochAttestations:    CopyPendingAttestations(state.CurrentEpochAttestations),
		JustificationBits:           bitfield.Bitvector4(bytesutil.SafeCopyBytes(state.JustificationBits)),
		PreviousJustifiedCheckpoint: CopyCheckpoint(state.PreviousJustifiedCheckpoint),
		CurrentJustifiedCheckpoint:  CopyCheckpoint(state.CurrentJustifiedCheckpoint),
		FinalizedCheckpoint:         CopyCheckpoint(state.FinalizedCheckpoint),
	}
}
