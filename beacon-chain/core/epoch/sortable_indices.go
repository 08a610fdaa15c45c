package epoch

import "github.com/zephyrchain/zephyr/types"

// sortableIndices implements the Sort interface to sort newly activated validator indices
// by activation epoch and by index number.
type sortableIndices struct {
	indices    []uint64
	validators []*types.Validator
}

// Len is the number of elements in the collection.
func (s sortableIndices) Len() int { return len(s.indices) }

// Swap swaps the elements with indexes i and j.
func (s sortableIndices) Swap(i, j int) { s.indices[i], s.indices[j] = s.indices[j], s.indices[i] }

// Less reports whether the element with index i must sort before the element with index j.
func (s sortableIndices) Less(i, j int) bool {
	a := s.validators[s.indices[i]].ActivationEligibilityEpoch
	b := s.validators[s.indices[j]].ActivationEligibilityEpoch
	if a == b {
		return s.indices[i] < s.indices[j]
	}
	return a < b
}
