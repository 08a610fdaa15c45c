package types

// ProposerSlashing is evidence of two distinct headers signed by one proposer
// for the same slot.
type ProposerSlashing struct {
	ProposerIndex uint64                   `json:"proposer_index"`
	Header1       *SignedBeaconBlockHeader `json:"signed_header_1"`
	Header2       *SignedBeaconBlockHeader `json:"signed_header_2"`
}

// AttesterSlashing is evidence of two conflicting indexed attestations.
type AttesterSlashing struct {
	Attestation1 *IndexedAttestation `json:"attestation_1"`
	Attestation2 *IndexedAttestation `json:"attestation_2"`
}

// DepositData is the content a depositor commits to the deposit contract.
type DepositData struct {
	PublicKey             []byte `json:"pubkey" ssz-size:"48"`
	WithdrawalCredentials []byte `json:"withdrawal_credentials" ssz-size:"32"`
	Amount                uint64 `json:"amount"`
	Signature             []byte `json:"signature" ssz-size:"96"`
}

// DepositMessage is the signed portion of DepositData.
type DepositMessage struct {
	PublicKey             []byte `json:"pubkey" ssz-size:"48"`
	WithdrawalCredentials []byte `json:"withdrawal_credentials" ssz-size:"32"`
	Amount                uint64 `json:"amount"`
}

// Deposit pairs deposit data with its Merkle proof against the deposit
// contract root. The proof is one deeper than the tree to cover the
// mixed-in deposit count.
type Deposit struct {
	Proof [][]byte     `json:"proof" ssz-size:"33,32"`
	Data  *DepositData `json:"data"`
}

// VoluntaryExit is a validator's request to leave the active set.
type VoluntaryExit struct {
	Epoch          uint64 `json:"epoch"`
	ValidatorIndex uint64 `json:"validator_index"`
}

// SignedVoluntaryExit is a voluntary exit plus the validator signature.
type SignedVoluntaryExit struct {
	Exit      *VoluntaryExit `json:"message"`
	Signature []byte         `json:"signature" ssz-size:"96"`
}
