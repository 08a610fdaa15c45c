package forkchoice

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/zephyrchain/zephyr/shared/bytesutil"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/types"
)

// delayedObject is a block or an attestation waiting on a dependency. The
// arrival sequence orders replay and decides which object an overfull queue
// drops first.
type delayedObject struct {
	block *types.SignedBeaconBlock
	att   *types.Attestation
	seq   uint64
}

func (s *Store) deferUntilBlock(obj *delayedObject, root [32]byte) {
	obj.seq = s.arrivalSeq
	s.arrivalSeq++
	// MaxDelayedObjects caps each queue, otherwise a peer could park
	// unbounded garbage behind a dependency that never shows up.
	if uint64(s.delayedBlockObjects) >= params.BeaconConfig().MaxDelayedObjects {
		s.evictOldestUntilBlock()
	}
	s.delayedUntilBlock[root] = append(s.delayedUntilBlock[root], obj)
	s.delayedBlockObjects++
	delayedUntilBlockCount.Set(float64(s.delayedBlockObjects))

	log.WithFields(logrus.Fields{
		"waitingForRoot": fmt.Sprintf("%#x", bytesutil.Trunc(root[:])),
		"isBlock":        obj.block != nil,
	}).Debug("Delaying processing until the block arrives")
}

func (s *Store) deferUntilSlot(obj *delayedObject, slot uint64) {
	obj.seq = s.arrivalSeq
	s.arrivalSeq++
	if uint64(s.delayedSlotObjects) >= params.BeaconConfig().MaxDelayedObjects {
		s.evictOldestUntilSlot()
	}
	s.delayedUntilSlot[slot] = append(s.delayedUntilSlot[slot], obj)
	s.delayedSlotObjects++
	delayedUntilSlotCount.Set(float64(s.delayedSlotObjects))

	log.WithFields(logrus.Fields{
		"waitingForSlot": slot,
		"isBlock":        obj.block != nil,
	}).Debug("Delaying processing until the slot starts")
}

// evictOldestUntilBlock drops the oldest arrival across the until-block queue.
// Entries within a queue slice are already in arrival order, so only the head
// of each slice competes.
func (s *Store) evictOldestUntilBlock() {
	var oldestKey [32]byte
	oldestSeq := uint64(0)
	found := false
	for root, objs := range s.delayedUntilBlock {
		if len(objs) == 0 {
			continue
		}
		if !found || objs[0].seq < oldestSeq {
			found = true
			oldestSeq = objs[0].seq
			oldestKey = root
		}
	}
	if !found {
		return
	}
	s.delayedUntilBlock[oldestKey] = s.delayedUntilBlock[oldestKey][1:]
	if len(s.delayedUntilBlock[oldestKey]) == 0 {
		delete(s.delayedUntilBlock, oldestKey)
	}
	s.delayedBlockObjects--
	delayedObjectsEvicted.Inc()
	log.WithField("waitingForRoot", fmt.Sprintf("%#x", bytesutil.Trunc(oldestKey[:]))).Warn(
		"Delay queue full, evicting the oldest object")
}

// evictOldestUntilSlot drops the oldest arrival across the until-slot queue.
func (s *Store) evictOldestUntilSlot() {
	oldestKey := uint64(0)
	oldestSeq := uint64(0)
	found := false
	for slot, objs := range s.delayedUntilSlot {
		if len(objs) == 0 {
			continue
		}
		if !found || objs[0].seq < oldestSeq {
			found = true
			oldestSeq = objs[0].seq
			oldestKey = slot
		}
	}
	if !found {
		return
	}
	s.delayedUntilSlot[oldestKey] = s.delayedUntilSlot[oldestKey][1:]
	if len(s.delayedUntilSlot[oldestKey]) == 0 {
		delete(s.delayedUntilSlot, oldestKey)
	}
	s.delayedSlotObjects--
	delayedObjectsEvicted.Inc()
	log.WithField("waitingForSlot", oldestKey).Warn("Delay queue full, evicting the oldest object")
}

// dueByBlock removes and returns every object waiting on the given block root.
func (s *Store) dueByBlock(root [32]byte) []*delayedObject {
	objs, ok := s.delayedUntilBlock[root]
	if !ok {
		return nil
	}
	delete(s.delayedUntilBlock, root)
	s.delayedBlockObjects -= len(objs)
	delayedUntilBlockCount.Set(float64(s.delayedBlockObjects))
	return objs
}

// dueBySlot removes and returns every object whose wait slot is at or before
// the given slot, in ascending slot order. Removing first means an object that
// defers itself again waits for the next tick instead of looping.
func (s *Store) dueBySlot(slot uint64) []*delayedObject {
	if len(s.delayedUntilSlot) == 0 {
		return nil
	}
	dueSlots := make([]uint64, 0, len(s.delayedUntilSlot))
	for k := range s.delayedUntilSlot {
		if k <= slot {
			dueSlots = append(dueSlots, k)
		}
	}
	sort.Slice(dueSlots, func(i, j int) bool { return dueSlots[i] < dueSlots[j] })

	var objs []*delayedObject
	for _, k := range dueSlots {
		objs = append(objs, s.delayedUntilSlot[k]...)
		s.delayedSlotObjects -= len(s.delayedUntilSlot[k])
		delete(s.delayedUntilSlot, k)
	}
	delayedUntilSlotCount.Set(float64(s.delayedSlotObjects))
	return objs
}

// retryDelayed replays deferred objects through the regular pipelines using an
// explicit work queue, appending whatever a successful block insertion frees.
// A replayed object that fails is logged and dropped, its original caller was
// answered long ago.
func (s *Store) retryDelayed(ctx context.Context, pending []*delayedObject) {
	for len(pending) > 0 {
		obj := pending[0]
		pending = pending[1:]
		switch {
		case obj.block != nil:
			freed, err := s.processBlock(ctx, obj.block)
			if err != nil {
				log.WithError(err).WithField("slot", obj.block.Block.Slot).Warn(
					"Could not process delayed block")
				continue
			}
			pending = append(pending, freed...)
		case obj.att != nil:
			if err := s.processAttestation(ctx, obj.att); err != nil {
				log.WithError(err).WithField("slot", obj.att.Data.Slot).Warn(
					"Could not process delayed attestation")
			}
		}
	}
}
