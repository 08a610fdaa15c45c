package trieutil

import (
	"encoding/hex"
	"testing"

	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
)

func TestNewTrie_EmptyRootMatchesDepositContract(t *testing.T) {
	trie, err := NewTrie(int(params.BeaconConfig().DepositContractTreeDepth))
	require.NoError(t, err)
	// get_deposit_root() of the deposit contract before any deposit.
	want, err := hex.DecodeString("d70a234731285c6804c2a4f56711ddb8c82c99740f207854891028af34e27e5e")
	require.NoError(t, err)
	root := trie.HashTreeRoot()
	assert.DeepEqual(t, want, root[:])
}

func TestGenerateTrieFromItems_NoItemsProvided(t *testing.T) {
	_, err := GenerateTrieFromItems(nil, 32)
	assert.ErrorContains(t, "no items provided", err)
}

func TestMerkleTrie_VerifyMerkleProof(t *testing.T) {
	items := [][]byte{
		[]byte("A"),
		[]byte("B"),
		[]byte("C"),
		[]byte("D"),
		[]byte("E"),
		[]byte("F"),
		[]byte("G"),
		[]byte("H"),
	}
	depth := int(params.BeaconConfig().DepositContractTreeDepth)
	trie, err := GenerateTrieFromItems(items, depth)
	require.NoError(t, err)
	proof, err := trie.MerkleProof(0)
	require.NoError(t, err)
	require.Equal(t, depth+1, len(proof))
	root := trie.HashTreeRoot()
	assert.Equal(t, true, VerifyMerkleBranch(root[:], items[0], 0, proof), "First Merkle proof did not verify")
	proof, err = trie.MerkleProof(3)
	require.NoError(t, err)
	assert.Equal(t, true, VerifyMerkleBranch(root[:], items[3], 3, proof))
	assert.Equal(t, false, VerifyMerkleBranch(root[:], []byte("buzz"), 3, proof), "Wrong leaf should not verify")
}

func TestMerkleTrie_Insert(t *testing.T) {
	depth := int(params.BeaconConfig().DepositContractTreeDepth)
	trie, err := NewTrie(depth)
	require.NoError(t, err)
	oldRoot := trie.HashTreeRoot()

	require.NoError(t, trie.Insert([]byte{1, 2, 3}, 0))
	newRoot := trie.HashTreeRoot()
	assert.DeepNotEqual(t, oldRoot, newRoot, "Root did not change after insertion")

	// Inserting at an index beyond the current leaves extends the trie.
	require.NoError(t, trie.Insert([]byte{4, 5, 6}, 1))
	require.NoError(t, trie.Insert([]byte{7, 8, 9}, 2))
	root := trie.HashTreeRoot()
	proof, err := trie.MerkleProof(2)
	require.NoError(t, err)
	item := [32]byte{7, 8, 9}
	assert.Equal(t, true, VerifyMerkleBranch(root[:], item[:], 2, proof))
}

func TestMerkleTrie_InsertNegativeIndex(t *testing.T) {
	trie, err := NewTrie(32)
	require.NoError(t, err)
	assert.ErrorContains(t, "negative index provided", trie.Insert([]byte{1}, -1))
}

func TestMerkleTrie_MerkleProofOutOfRange(t *testing.T) {
	items := [][]byte{[]byte("A"), []byte("B"), []byte("C")}
	trie, err := GenerateTrieFromItems(items, 4)
	require.NoError(t, err)
	_, err = trie.MerkleProof(-1)
	assert.ErrorContains(t, "merkle index out of range", err)
	_, err = trie.MerkleProof(9000)
	assert.ErrorContains(t, "merkle index out of range", err)
}

func TestMerkleTrie_RootConsistentWithBatchConstruction(t *testing.T) {
	items := [][]byte{
		[]byte("short"),
		[]byte("proof"),
		[]byte("check"),
	}
	depth := 16
	batch, err := GenerateTrieFromItems(items, depth)
	require.NoError(t, err)

	incremental, err := NewTrie(depth)
	require.NoError(t, err)
	for i, item := range items {
		require.NoError(t, incremental.Insert(item, i))
	}
	assert.Equal(t, batch.HashTreeRoot(), incremental.HashTreeRoot(), "Batch and incremental construction roots differ")
	assert.Equal(t, len(items), len(incremental.Items()))
}
