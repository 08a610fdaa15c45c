// Package forkchoice implements the LMD GHOST fork choice rule of the beacon
// chain. The Store ingests blocks, attestations and slot ticks, tracks the
// justified and finalized checkpoints, and selects the canonical head by
// descending toward the child subtree with the heaviest latest-message weight.
// Objects that arrive before their dependencies (an unknown parent block, a
// slot that has not started) are parked in bounded delay queues and replayed
// once the dependency is satisfied.
package forkchoice
