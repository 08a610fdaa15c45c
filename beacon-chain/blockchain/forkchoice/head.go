package forkchoice

import (
	"bytes"
	"context"

	"github.com/pkg/errors"
	"github.com/zephyrchain/zephyr/beacon-chain/core/helpers"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/copyutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
	"go.opencensus.io/trace"
)

// Head executes the LMD GHOST fork choice and returns the canonical head
// block root.
//
// Spec pseudocode definition:
//   def get_head(store: Store) -> Root:
//    # Get filtered block tree that only includes viable branches
//    blocks = get_filtered_block_tree(store)
//    # Execute the LMD-GHOST fork choice
//    head = store.justified_checkpoint.root
//    justified_slot = compute_start_slot_at_epoch(store.justified_checkpoint.epoch)
//    while True:
//        children = [
//            root for root in blocks.keys()
//            if blocks[root].parent_root == head and blocks[root].slot > justified_slot
//        ]
//        if len(children) == 0:
//            return head
//        # Sort by latest attesting balance with ties broken lexicographically
//        head = max(children, key=lambda root: (get_latest_attesting_balance(store, root), root))
func (s *Store) Head(ctx context.Context) ([]byte, error) {
	ctx, span := trace.StartSpan(ctx, "forkchoice.head")
	defer span.End()

	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.head(ctx)
}

// HeadState returns a copy of the post state of the current head block.
func (s *Store) HeadState(ctx context.Context) (*types.BeaconState, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	head, err := s.head(ctx)
	if err != nil {
		return nil, err
	}
	headState, ok := s.blockStates[bytesutil.ToBytes32(head)]
	if !ok {
		return nil, errors.Wrapf(errUnknownBlock, "head %#x has no state", bytesutil.Trunc(head))
	}
	return copyutil.CopyBeaconState(headState), nil
}

func (s *Store) head(ctx context.Context) ([]byte, error) {
	justifiedRoot := bytesutil.ToBytes32(s.justifiedCheckpt.Root)
	justifiedSlot := helpers.StartSlot(s.justifiedCheckpt.Epoch)

	children := s.childrenIndex()
	viable := s.filterBlockTree(justifiedRoot, children)

	head := justifiedRoot
	for {
		bestWeight := uint64(0)
		var bestRoot [32]byte
		found := false
		for _, child := range children[head] {
			if !viable[child] {
				continue
			}
			blk, ok := s.blocks[child]
			if !ok || blk.Block.Slot <= justifiedSlot {
				continue
			}
			weight, err := s.latestAttestingBalance(ctx, child)
			if err != nil {
				return nil, errors.Wrap(err, "could not get latest attesting balance")
			}
			// Ties break toward the numerically larger root.
			if !found || weight > bestWeight || (weight == bestWeight && bytes.Compare(child[:], bestRoot[:]) > 0) {
				found = true
				bestWeight = weight
				bestRoot = child
			}
		}
		if !found {
			return bytesutil.SafeCopyBytes(head[:]), nil
		}
		head = bestRoot
	}
}

// childrenIndex builds the parent to children adjacency of every block the
// store knows.
func (s *Store) childrenIndex() map[[32]byte][][32]byte {
	children := make(map[[32]byte][][32]byte, len(s.blocks))
	for root, blk := range s.blocks {
		parent := bytesutil.ToBytes32(blk.Block.ParentRoot)
		children[parent] = append(children[parent], root)
	}
	return children
}

// filterBlockTree marks the viability of every block under the given root. A
// leaf is viable when its state agrees with the store's justified and
// finalized checkpoints, an interior block is viable when any of its children
// is. The walk expands breadth first and evaluates in reverse so deep forks
// cannot exhaust the call stack.
//
// Spec pseudocode definition:
//   def filter_block_tree(store: Store, block_root: Root, blocks: Dict[Root, BeaconBlock]) -> bool:
//    block = store.blocks[block_root]
//    children = [
//        root for root in store.blocks.keys()
//        if store.blocks[root].parent_root == block_root
//    ]
//    # If any children branches contain expected finalized/justified checkpoints,
//    # add to filtered block-tree and signal viability to parent.
//    if any(children):
//        filter_block_tree_result = [filter_block_tree(store, child, blocks) for child in children]
//        if any(filter_block_tree_result):
//            blocks[block_root] = block
//            return True
//        return False
//    # If leaf block, check finalized/justified checkpoints as matching latest.
//    head_state = store.block_states[block_root]
//    correct_justified = (
//        store.justified_checkpoint.epoch == GENESIS_EPOCH
//        or head_state.current_justified_checkpoint == store.justified_checkpoint
//    )
//    correct_finalized = (
//        store.finalized_checkpoint.epoch == GENESIS_EPOCH
//        or head_state.finalized_checkpoint == store.finalized_checkpoint
//    )
//    # If expected finalized/justified, add to viable block-tree and signal viability to parent.
//    if correct_justified and correct_finalized:
//        blocks[block_root] = block
//        return True
//    # Otherwise, branch not viable
//    return False
func (s *Store) filterBlockTree(root [32]byte, children map[[32]byte][][32]byte) map[[32]byte]bool {
	order := make([][32]byte, 0, len(s.blocks))
	order = append(order, root)
	for i := 0; i < len(order); i++ {
		order = append(order, children[order[i]]...)
	}

	viable := make(map[[32]byte]bool, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		r := order[i]
		kids := children[r]
		if len(kids) == 0 {
			viable[r] = s.leafIsViable(r)
			continue
		}
		for _, k := range kids {
			if viable[k] {
				viable[r] = true
				break
			}
		}
	}
	return viable
}

// leafIsViable reports whether a leaf block's state agrees with the store's
// justified and finalized checkpoints. Checkpoints at the genesis epoch have
// no on-chain vote backing them yet and match unconditionally.
func (s *Store) leafIsViable(root [32]byte) bool {
	headState, ok := s.blockStates[root]
	if !ok || headState == nil {
		return false
	}
	genesisEpoch := params.BeaconConfig().GenesisEpoch
	correctJustified := s.justifiedCheckpt.Epoch == genesisEpoch ||
		checkpointsEqual(headState.CurrentJustifiedCheckpoint, s.justifiedCheckpt)
	correctFinalized := s.finalizedCheckpt.Epoch == genesisEpoch ||
		checkpointsEqual(headState.FinalizedCheckpoint, s.finalizedCheckpt)
	return correctJustified && correctFinalized
}

func checkpointsEqual(a, b *types.Checkpoint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Epoch == b.Epoch && bytes.Equal(a.Root, b.Root)
}
