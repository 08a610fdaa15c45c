// Package params defines all the configurable parameters of the beacon chain
// protocol along with the presets used to run it.
package params

// BeaconChainConfig contains constant configs for node to participate in beacon chain.
type BeaconChainConfig struct {
	// Constants (non-configurable)
	FarFutureEpoch           uint64 `json:"FAR_FUTURE_EPOCH"`
	BaseRewardsPerEpoch      uint64 `json:"BASE_REWARDS_PER_EPOCH"`
	DepositContractTreeDepth uint64 `json:"DEPOSIT_CONTRACT_TREE_DEPTH"`
	JustificationBitsLength  uint64 `json:"JUSTIFICATION_BITS_LENGTH"`
	GenesisSlot              uint64 `json:"GENESIS_SLOT"`
	GenesisEpoch             uint64 `json:"GENESIS_EPOCH"`

	// Misc constants.
	TargetCommitteeSize            uint64 `json:"TARGET_COMMITTEE_SIZE"`
	MaxValidatorsPerCommittee      uint64 `json:"MAX_VALIDATORS_PER_COMMITTEE"`
	MaxCommitteesPerSlot           uint64 `json:"MAX_COMMITTEES_PER_SLOT"`
	MinPerEpochChurnLimit          uint64 `json:"MIN_PER_EPOCH_CHURN_LIMIT"`
	ChurnLimitQuotient             uint64 `json:"CHURN_LIMIT_QUOTIENT"`
	ShuffleRoundCount              uint64 `json:"SHUFFLE_ROUND_COUNT"`
	MinGenesisActiveValidatorCount uint64 `json:"MIN_GENESIS_ACTIVE_VALIDATOR_COUNT"`
	MinGenesisTime                 uint64 `json:"MIN_GENESIS_TIME"`

	// Gwei value constants.
	MinDepositAmount          uint64 `json:"MIN_DEPOSIT_AMOUNT"`
	MaxEffectiveBalance       uint64 `json:"MAX_EFFECTIVE_BALANCE"`
	EjectionBalance           uint64 `json:"EJECTION_BALANCE"`
	EffectiveBalanceIncrement uint64 `json:"EFFECTIVE_BALANCE_INCREMENT"`

	// Initial value constants.
	BLSWithdrawalPrefixByte byte     `json:"BLS_WITHDRAWAL_PREFIX"`
	GenesisForkVersion      []byte   `json:"GENESIS_FORK_VERSION"`
	ZeroHash                [32]byte `json:"-"`

	// Time parameter constants.
	SecondsPerSlot                   uint64 `json:"SECONDS_PER_SLOT"`
	MinAttestationInclusionDelay     uint64 `json:"MIN_ATTESTATION_INCLUSION_DELAY"`
	SlotsPerEpoch                    uint64 `json:"SLOTS_PER_EPOCH"`
	MinSeedLookahead                 uint64 `json:"MIN_SEED_LOOKAHEAD"`
	MaxSeedLookahead                 uint64 `json:"MAX_SEED_LOOKAHEAD"`
	SlotsPerEth1VotingPeriod         uint64 `json:"SLOTS_PER_ETH1_VOTING_PERIOD"`
	SlotsPerHistoricalRoot           uint64 `json:"SLOTS_PER_HISTORICAL_ROOT"`
	MinValidatorWithdrawabilityDelay uint64 `json:"MIN_VALIDATOR_WITHDRAWABILITY_DELAY"`
	ShardCommitteePeriod             uint64 `json:"SHARD_COMMITTEE_PERIOD"`
	MinEpochsToInactivityPenalty     uint64 `json:"MIN_EPOCHS_TO_INACTIVITY_PENALTY"`

	// State list length constants.
	EpochsPerHistoricalVector uint64 `json:"EPOCHS_PER_HISTORICAL_VECTOR"`
	EpochsPerSlashingsVector  uint64 `json:"EPOCHS_PER_SLASHINGS_VECTOR"`
	HistoricalRootsLimit      uint64 `json:"HISTORICAL_ROOTS_LIMIT"`
	ValidatorRegistryLimit    uint64 `json:"VALIDATOR_REGISTRY_LIMIT"`

	// Reward and penalty quotient constants.
	BaseRewardFactor            uint64 `json:"BASE_REWARD_FACTOR"`
	WhistleBlowerRewardQuotient uint64 `json:"WHISTLEBLOWER_REWARD_QUOTIENT"`
	ProposerRewardQuotient      uint64 `json:"PROPOSER_REWARD_QUOTIENT"`
	InactivityPenaltyQuotient   uint64 `json:"INACTIVITY_PENALTY_QUOTIENT"`
	MinSlashingPenaltyQuotient  uint64 `json:"MIN_SLASHING_PENALTY_QUOTIENT"`

	// Max operations per block constants.
	MaxProposerSlashings uint64 `json:"MAX_PROPOSER_SLASHINGS"`
	MaxAttesterSlashings uint64 `json:"MAX_ATTESTER_SLASHINGS"`
	MaxAttestations      uint64 `json:"MAX_ATTESTATIONS"`
	MaxDeposits          uint64 `json:"MAX_DEPOSITS"`
	MaxVoluntaryExits    uint64 `json:"MAX_VOLUNTARY_EXITS"`

	// BLS domain values.
	DomainBeaconProposer [4]byte `json:"-"`
	DomainBeaconAttester [4]byte `json:"-"`
	DomainRandao         [4]byte `json:"-"`
	DomainDeposit        [4]byte `json:"-"`
	DomainVoluntaryExit  [4]byte `json:"-"`

	// Fork choice constants.
	SafeSlotsToUpdateJustified uint64 `json:"SAFE_SLOTS_TO_UPDATE_JUSTIFIED"`
	MaxDelayedObjects          uint64 `json:"MAX_DELAYED_OBJECTS"`

	// Cryptography constants.
	BLSSecretKeyLength int      `json:"-"`
	BLSPubkeyLength    int      `json:"-"`
	BLSSignatureLength int      `json:"-"`
	EmptySignature     [96]byte `json:"-"`
}

var beaconConfig = MainnetConfig()

// BeaconConfig retrieves beacon chain config.
func BeaconConfig() *BeaconChainConfig {
	return beaconConfig
}

// OverrideBeaconConfig by replacing the config. The preferred pattern is to
// call BeaconConfig(), change the specific parameters, and then call
// OverrideBeaconConfig(c). Any subsequent calls to params.BeaconConfig() will
// return this new configuration.
func OverrideBeaconConfig(c *BeaconChainConfig) {
	beaconConfig = c
}

// Copy returns a copy of the config object.
func (b *BeaconChainConfig) Copy() *BeaconChainConfig {
	config := *b
	config.GenesisForkVersion = append([]byte{}, b.GenesisForkVersion...)
	return &config
}
