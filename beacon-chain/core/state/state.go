package state

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-bitfield"
	"github.com/prysmaticlabs/go-ssz"
	b "github.com/zephyrchain/zephyr/beacon-chain/core/blocks"
	"github.com/zephyrchain/zephyr/shared/mathutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/trieutil"
	"github.com/zephyrchain/zephyr/types"
)

// GenesisBeaconState gets called when enough full deposits were made to the
// deposit contract and the time has come to launch the chain. It processes the
// genesis deposits against the complete deposit trie and activates every
// validator that deposited a full balance.
//
// Spec pseudocode definition:
//  def initialize_beacon_state_from_eth1(eth1_block_hash: Bytes32,
//                                        eth1_timestamp: uint64,
//                                        deposits: Sequence[Deposit]) -> BeaconState:
//    state = BeaconState(
//        genesis_time=eth1_timestamp - eth1_timestamp % MIN_GENESIS_DELAY + 2 * MIN_GENESIS_DELAY,
//        eth1_data=Eth1Data(block_hash=eth1_block_hash, deposit_count=len(deposits)),
//        latest_block_header=BeaconBlockHeader(body_root=hash_tree_root(BeaconBlockBody())),
//    )
//
//    # Process deposits
//    leaves = list(map(lambda deposit: deposit.data, deposits))
//    for index, deposit in enumerate(deposits):
//        deposit_data_list = List[DepositData, 2**DEPOSIT_CONTRACT_TREE_DEPTH](*leaves[:index + 1])
//        state.eth1_data.deposit_root = hash_tree_root(deposit_data_list)
//        process_deposit(state, deposit)
//
//    # Process activations
//    for index, validator in enumerate(state.validators):
//        balance = state.balances[index]
//        validator.effective_balance = min(balance - balance % EFFECTIVE_BALANCE_INCREMENT, MAX_EFFECTIVE_BALANCE)
//        if validator.effective_balance == MAX_EFFECTIVE_BALANCE:
//            validator.activation_eligibility_epoch = GENESIS_EPOCH
//            validator.activation_epoch = GENESIS_EPOCH
//
//    return state
func GenesisBeaconState(ctx context.Context, deposits []*types.Deposit, genesisTime uint64, eth1Data *types.Eth1Data) (*types.BeaconState, error) {
	if eth1Data == nil {
		return nil, errors.New("no eth1data provided for genesis state")
	}

	state := EmptyGenesisState()
	state.GenesisTime = genesisTime
	state.Eth1Data = eth1Data

	// Seed the randao mixes with the eth1 block hash.
	randaoMixes := make([][]byte, params.BeaconConfig().EpochsPerHistoricalVector)
	for i := 0; i < len(randaoMixes); i++ {
		h := make([]byte, 32)
		copy(h, eth1Data.BlockHash)
		randaoMixes[i] = h
	}
	state.RandaoMixes = randaoMixes

	// Process the genesis deposits. Every deposit carries a proof against the
	// full deposit trie, so the deposit root is fixed to the root of that trie
	// up front rather than regrown per deposit.
	leaves := make([][]byte, 0, len(deposits))
	for _, deposit := range deposits {
		if deposit == nil || deposit.Data == nil {
			return nil, errors.New("nil deposit provided for genesis state")
		}
		hash, err := ssz.HashTreeRoot(deposit.Data)
		if err != nil {
			return nil, errors.Wrap(err, "could not tree hash deposit data")
		}
		leaves = append(leaves, hash[:])
	}
	var trie *trieutil.SparseMerkleTrie
	var err error
	if len(leaves) > 0 {
		trie, err = trieutil.GenerateTrieFromItems(leaves, int(params.BeaconConfig().DepositContractTreeDepth))
		if err != nil {
			return nil, errors.Wrap(err, "could not generate deposit trie")
		}
	} else {
		trie, err = trieutil.NewTrie(int(params.BeaconConfig().DepositContractTreeDepth))
		if err != nil {
			return nil, errors.Wrap(err, "could not create deposit trie")
		}
	}
	depositRoot := trie.HashTreeRoot()
	state.Eth1Data.DepositRoot = depositRoot[:]

	for i, deposit := range deposits {
		state, err = b.ProcessDeposit(ctx, state, deposit)
		if err != nil {
			return nil, errors.Wrapf(err, "could not process validator deposit %d", i)
		}
	}

	// Process genesis activations.
	for i, validator := range state.Validators {
		balance := state.Balances[i]
		validator.EffectiveBalance = mathutil.Min(
			balance-balance%params.BeaconConfig().EffectiveBalanceIncrement,
			params.BeaconConfig().MaxEffectiveBalance,
		)
		if validator.EffectiveBalance == params.BeaconConfig().MaxEffectiveBalance {
			validator.ActivationEligibilityEpoch = 0
			validator.ActivationEpoch = 0
		}
	}

	// The header's body root must commit to the empty block body so the
	// genesis block and the genesis state header hash to the same root.
	bodyRoot, err := ssz.HashTreeRoot(&types.BeaconBlockBody{
		RandaoReveal: make([]byte, params.BeaconConfig().BLSSignatureLength),
		Eth1Data: &types.Eth1Data{
			DepositRoot: make([]byte, 32),
			BlockHash:   make([]byte, 32),
		},
		Graffiti: make([]byte, 32),
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not hash tree root empty block body")
	}
	zeroHash := params.BeaconConfig().ZeroHash
	state.LatestBlockHeader = &types.BeaconBlockHeader{
		ParentRoot: zeroHash[:],
		StateRoot:  zeroHash[:],
		BodyRoot:   bodyRoot[:],
	}

	return state, nil
}

// EmptyGenesisState returns an empty genesis beacon state with every registry
// list allocated and every state vector zero filled.
func EmptyGenesisState() *types.BeaconState {
	zeroHash := params.BeaconConfig().ZeroHash

	blockRoots := make([][]byte, params.BeaconConfig().SlotsPerHistoricalRoot)
	for i := 0; i < len(blockRoots); i++ {
		blockRoots[i] = zeroHash[:]
	}
	stateRoots := make([][]byte, params.BeaconConfig().SlotsPerHistoricalRoot)
	for i := 0; i < len(stateRoots); i++ {
		stateRoots[i] = zeroHash[:]
	}
	randaoMixes := make([][]byte, params.BeaconConfig().EpochsPerHistoricalVector)
	for i := 0; i < len(randaoMixes); i++ {
		randaoMixes[i] = zeroHash[:]
	}
	slashings := make([]uint64, params.BeaconConfig().EpochsPerSlashingsVector)

	return &types.BeaconState{
		// Misc fields.
		Slot: 0,
		Fork: &types.Fork{
			PreviousVersion: params.BeaconConfig().GenesisForkVersion,
			CurrentVersion:  params.BeaconConfig().GenesisForkVersion,
			Epoch:           0,
		},

		// Validator registry fields.
		Validators: []*types.Validator{},
		Balances:   []uint64{},

		// Randomness and committees.
		RandaoMixes: randaoMixes,

		// Finality.
		JustificationBits:           bitfield.Bitvector4{0x00},
		PreviousJustifiedCheckpoint: &types.Checkpoint{Root: zeroHash[:]},
		CurrentJustifiedCheckpoint:  &types.Checkpoint{Root: zeroHash[:]},
		FinalizedCheckpoint:         &types.Checkpoint{Root: zeroHash[:]},

		// Recent state.
		BlockRoots:                blockRoots,
		StateRoots:                stateRoots,
		HistoricalRoots:           [][]byte{},
		Slashings:                 slashings,
		PreviousEpochAttestations: []*types.PendingAttestation{},
		CurrentEpochAttestations:  []*types.PendingAttestation{},
		LatestBlockHeader:         emptyGenesisBlockHeader(),

		// Eth1 data.
		Eth1Data:         &types.Eth1Data{},
		Eth1DataVotes:    []*types.Eth1Data{},
		Eth1DepositIndex: 0,
	}
}

// IsValidGenesisState gets called whenever there's a deposit event,
// it checks whether there's enough effective balance to trigger and
// if the minimum genesis time arrived already.
//
// Spec pseudocode definition:
//  def is_valid_genesis_state(state: BeaconState) -> bool:
//     if state.genesis_time < MIN_GENESIS_TIME:
//         return False
//     if len(get_active_validator_indices(state, GENESIS_EPOCH)) < MIN_GENESIS_ACTIVE_VALIDATOR_COUNT:
//         return False
//     return True
func IsValidGenesisState(chainStartDepositCount uint64, currentTime uint64) bool {
	if currentTime < params.BeaconConfig().MinGenesisTime {
		return false
	}
	if chainStartDepositCount < params.BeaconConfig().MinGenesisActiveValidatorCount {
		return false
	}
	return true
}

func emptyGenesisBlockHeader() *types.BeaconBlockHeader {
	zeroHash := params.BeaconConfig().ZeroHash
	return &types.BeaconBlockHeader{
		ParentRoot: zeroHash[:],
		StateRoot:  zeroHash[:],
		BodyRoot:   zeroHash[:],
	}
}
