package params

import (
	"github.com/zephyrchain/zephyr/shared/bytesutil"
)

// MainnetConfig returns the configuration to be used in the main network.
func MainnetConfig() *BeaconChainConfig {
	return mainnetBeaconConfig
}

// UseMainnetConfig for beacon chain services.
func UseMainnetConfig() {
	beaconConfig = MainnetConfig()
}

var mainnetBeaconConfig = &BeaconChainConfig{
	// Constants (non-configurable)
	FarFutureEpoch:           1<<64 - 1,
	BaseRewardsPerEpoch:      4,
	DepositContractTreeDepth: 32,
	JustificationBitsLength:  4,
	GenesisSlot:              0,
	GenesisEpoch:             0,

	// Misc constant.
	TargetCommitteeSize:            128,
	MaxValidatorsPerCommittee:      2048,
	MaxCommitteesPerSlot:           64,
	MinPerEpochChurnLimit:          4,
	ChurnLimitQuotient:             1 << 16,
	ShuffleRoundCount:              90,
	MinGenesisActiveValidatorCount: 16384,
	MinGenesisTime:                 1578009600, // Jan 3, 2020.

	// Gwei value constants.
	MinDepositAmount:          1 * 1e9,
	MaxEffectiveBalance:       32 * 1e9,
	EjectionBalance:           16 * 1e9,
	EffectiveBalanceIncrement: 1 * 1e9,

	// Initial value constants.
	BLSWithdrawalPrefixByte: byte(0),
	GenesisForkVersion:      []byte{0, 0, 0, 0},
	ZeroHash:                [32]byte{},

	// Time parameter constants.
	SecondsPerSlot:                   12,
	MinAttestationInclusionDelay:     1,
	SlotsPerEpoch:                    32,
	MinSeedLookahead:                 1,
	MaxSeedLookahead:                 4,
	SlotsPerEth1VotingPeriod:         1024,
	SlotsPerHistoricalRoot:           8192,
	MinValidatorWithdrawabilityDelay: 256,
	ShardCommitteePeriod:             256,
	MinEpochsToInactivityPenalty:     4,

	// State list length constants.
	EpochsPerHistoricalVector: 65536,
	EpochsPerSlashingsVector:  8192,
	HistoricalRootsLimit:      16777216,
	ValidatorRegistryLimit:    1099511627776,

	// Reward and penalty quotients constants.
	BaseRewardFactor:            64,
	WhistleBlowerRewardQuotient: 512,
	ProposerRewardQuotient:      8,
	InactivityPenaltyQuotient:   1 << 26,
	MinSlashingPenaltyQuotient:  128,

	// Max operations per block constants.
	MaxProposerSlashings: 16,
	MaxAttesterSlashings: 1,
	MaxAttestations:      128,
	MaxDeposits:          16,
	MaxVoluntaryExits:    16,

	// BLS domain values.
	DomainBeaconProposer: bytesutil.ToBytes4(bytesutil.Bytes4(0)),
	DomainBeaconAttester: bytesutil.ToBytes4(bytesutil.Bytes4(1)),
	DomainRandao:         bytesutil.ToBytes4(bytesutil.Bytes4(2)),
	DomainDeposit:        bytesutil.ToBytes4(bytesutil.Bytes4(3)),
	DomainVoluntaryExit:  bytesutil.ToBytes4(bytesutil.Bytes4(4)),

	// Fork choice constants.
	SafeSlotsToUpdateJustified: 8,
	MaxDelayedObjects:          4096,

	// Cryptography constants.
	BLSSecretKeyLength: 32,
	BLSPubkeyLength:    48,
	BLSSignatureLength: 96,
	EmptySignature:     [96]byte{},
}
