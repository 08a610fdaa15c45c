package forkchoice

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/prysmaticlabs/go-ssz"
	"github.com/zephyrchain/zephyr/beacon-chain/cache"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/types"
)

// LatestMessage is the most recent target vote the store tracks for a
// validator index, used to weigh subtrees during head selection.
type LatestMessage struct {
	Epoch uint64
	Root  [32]byte
}

// Store tracks the fork choice view of the chain: the justified and finalized
// checkpoints, every processed block with its post state, the validators'
// latest messages, and the objects parked until a missing parent block or a
// future slot arrives. All mutations go through OnSlot, OnBlock and
// OnAttestation.
//
// Spec pseudocode definition:
//   class Store(object):
//    time: uint64
//    justified_checkpoint: Checkpoint
//    finalized_checkpoint: Checkpoint
//    best_justified_checkpoint: Checkpoint
//    blocks: Dict[Root, BeaconBlock] = field(default_factory=dict)
//    block_states: Dict[Root, BeaconState] = field(default_factory=dict)
//    checkpoint_states: Dict[Checkpoint, BeaconState] = field(default_factory=dict)
//    latest_messages: Dict[ValidatorIndex, LatestMessage] = field(default_factory=dict)
type Store struct {
	lock                  sync.RWMutex
	slot                  uint64
	justifiedCheckpt      *types.Checkpoint
	bestJustifiedCheckpt  *types.Checkpoint
	finalizedCheckpt      *types.Checkpoint
	blocks                map[[32]byte]*types.SignedBeaconBlock
	blockStates           map[[32]byte]*types.BeaconState
	checkpointStates      *cache.CheckpointStateCache
	latestMessages        map[uint64]*LatestMessage
	delayedUntilBlock     map[[32]byte][]*delayedObject
	delayedUntilSlot      map[uint64][]*delayedObject
	delayedBlockObjects   int
	delayedSlotObjects    int
	arrivalSeq            uint64
	nextEpochBoundarySlot uint64
}

// NewStore initializes the fork choice store from an anchor state and its
// matching block. The anchor seeds all three checkpoints, the block and state
// maps, and the checkpoint state cache, so head selection works before any
// further block arrives.
//
// Spec pseudocode definition:
//   def get_genesis_store(genesis_state: BeaconState) -> Store:
//    genesis_block = BeaconBlock(state_root=hash_tree_root(genesis_state))
//    root = hash_tree_root(genesis_block)
//    justified_checkpoint = Checkpoint(epoch=GENESIS_EPOCH, root=root)
//    finalized_checkpoint = Checkpoint(epoch=GENESIS_EPOCH, root=root)
//    return Store(
//        time=genesis_state.genesis_time,
//        justified_checkpoint=justified_checkpoint,
//        finalized_checkpoint=finalized_checkpoint,
//        best_justified_checkpoint=justified_checkpoint,
//        blocks={root: genesis_block},
//        block_states={root: genesis_state.copy()},
//        checkpoint_states={justified_checkpoint: genesis_state.copy()},
//    )
func NewStore(anchorState *types.BeaconState, anchorBlock *types.SignedBeaconBlock) (*Store, error) {
	if anchorState == nil {
		return nil, errors.New("nil anchor state")
	}
	if anchorBlock == nil || anchorBlock.Block == nil {
		return nil, errors.New("nil anchor block")
	}

	root, err := ssz.HashTreeRoot(anchorBlock.Block)
	if err != nil {
		return nil, errors.Wrap(err, "could not tree hash anchor block")
	}
	checkpt := &types.Checkpoint{Epoch: helpers.CurrentEpoch(anchorState), Root: root[:]}

	checkpointStates, err := cache.NewCheckpointStateCache()
	if err != nil {
		return nil, errors.Wrap(err, "could not initialize checkpoint state cache")
	}
	if err := checkpointStates.AddCheckpointState(&cache.CheckpointState{
		Checkpoint: copyutil.CopyCheckpoint(checkpt),
		State:      copyutil.CopyBeaconState(anchorState),
	}); err != nil {
		return nil, errors.Wrap(err, "could not seed checkpoint state cache")
	}

	return &Store{
		slot:                  anchorState.Slot,
		justifiedCheckpt:      copyutil.CopyCheckpoint(checkpt),
		bestJustifiedCheckpt:  copyutil.CopyCheckpoint(checkpt),
		finalizedCheckpt:      copyutil.CopyCheckpoint(checkpt),
		blocks:                map[[32]byte]*types.SignedBeaconBlock{root: anchorBlock},
		blockStates:           map[[32]byte]*types.BeaconState{root: copyutil.CopyBeaconState(anchorState)},
		checkpointStates:      checkpointStates,
		latestMessages:        make(map[uint64]*LatestMessage),
		delayedUntilBlock:     make(map[[32]byte][]*delayedObject),
		delayedUntilSlot:      make(map[uint64][]*delayedObject),
		nextEpochBoundarySlot: helpers.StartSlot(helpers.NextEpoch(anchorState)),
	}, nil
}

// Slot returns the last slot the store has been advanced to.
func (s *Store) Slot() uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.slot
}

// JustifiedCheckpt returns the store's justified checkpoint.
func (s *Store) JustifiedCheckpt() *types.Checkpoint {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return copyutil.CopyCheckpoint(s.justifiedCheckpt)
}

// FinalizedCheckpt returns the store's finalized checkpoint.
func (s *Store) FinalizedCheckpt() *types.Checkpoint {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return copyutil.CopyCheckpoint(s.finalizedCheckpt)
}

// Block returns the processed block for the given root, or nil when the store
// does not know the root.
func (s *Store) Block(root [32]byte) *types.SignedBeaconBlock {
	s.lock.RLock()
	defer s.lock.RUnlock()
	blk, ok := s.blocks[root]
	if !ok {
		return nil
	}
	return copyutil.CopySignedBeaconBlock(blk)
}

// HasBlock returns true if the store has processed a block with the given root.
func (s *Store) HasBlock(root [32]byte) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.blocks[root]
	return ok
}

// BlockState returns the post state of the block with the given root, or nil
// when the store does not know the root.
func (s *Store) BlockState(root [32]byte) *types.BeaconState {
	s.lock.RLock()
	defer s.lock.RUnlock()
	st, ok := s.blockStates[root]
	if !ok {
		return nil
	}
	return copyutil.CopyBeaconState(st)
}

// ancestor walks the parent pointers from the given root until it reaches a
// block at or before the requested slot and returns that block's root.
//
// Spec pseudocode definition:
//   def get_ancestor(store: Store, root: Root, slot: Slot) -> Root:
//    block = store.blocks[root]
//    if block.slot > slot:
//        return get_ancestor(store, block.parent_root, slot)
//    elif block.slot == slot:
//        return root
//    else:
//        # root is older than queried slot, thus a skip slot. Return most recent root prior to slot
//        return root
func (s *Store) ancestor(root [32]byte, slot uint64) ([32]byte, error) {
	for {
		signed, ok := s.blocks[root]
		if !ok || signed.Block == nil {
			return [32]byte{}, errors.Wrapf(errUnknownBlock, "%#x", bytesutil.Trunc(root[:]))
		}
		if signed.Block.Slot <= slot {
			return root, nil
		}
		root = bytesutil.ToBytes32(signed.Block.ParentRoot)
	}
}

// latestAttestingBalance sums the effective balances of the active validators
// in the justified checkpoint state whose latest message descends through the
// given block root. Votes for roots the store no longer knows carry no weight.
//
// Spec pseudocode definition:
//   def get_latest_attesting_balance(store: Store, root: Root) -> Gwei:
//    state = store.checkpoint_states[store.justified_checkpoint]
//    active_indices = get_active_validator_indices(state, get_current_epoch(state))
//    return Gwei(sum(
//        state.validators[i].effective_balance for i in active_indices
//        if (i in store.latest_messages
//            and get_ancestor(store, store.latest_messages[i].root, store.blocks[root].slot) == root)
//    ))
func (s *Store) latestAttestingBalance(ctx context.Context, root [32]byte) (uint64, error) {
	justifiedState, err := s.checkpointState(ctx, s.justifiedCheckpt)
	if err != nil {
		return 0, errors.Wrap(err, "could not get justified checkpoint state")
	}

	blk, ok := s.blocks[root]
	if !ok || blk.Block == nil {
		return 0, errors.Wrapf(errUnknownBlock, "%#x", bytesutil.Trunc(root[:]))
	}
	blockSlot := blk.Block.Slot

	balance := uint64(0)
	for _, i := range helpers.ActiveValidatorIndices(justifiedState, helpers.CurrentEpoch(justifiedState)) {
		msg, ok := s.latestMessages[i]
		if !ok {
			continue
		}
		votedRoot, err := s.ancestor(msg.Root, blockSlot)
		if err != nil || votedRoot != root {
			continue
		}
		balance += justifiedState.Validators[i].EffectiveBalance
	}
	return balance, nil
}
