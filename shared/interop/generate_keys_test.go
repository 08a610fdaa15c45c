package interop_test

import (
	"testing"

	"github.com/zephyrchain/zephyr/shared/interop"
	"github.com/zephyrchain/zephyr/shared/params"
	"github.com/zephyrchain/zephyr/shared/testutil/assert"
	"github.com/zephyrchain/zephyr/shared/testutil/require"
)

func TestDeterministicallyGenerateKeys(t *testing.T) {
	priv, pub, err := interop.DeterministicallyGenerateKeys(0, 10)
	require.NoError(t, err)
	require.Equal(t, 10, len(priv))
	require.Equal(t, 10, len(pub))

	for i, key := range priv {
		assert.Equal(t, params.BeaconConfig().BLSSecretKeyLength, len(key.Marshal()), "key %d has wrong length", i)
		assert.Equal(t, params.BeaconConfig().BLSPubkeyLength, len(pub[i].Marshal()), "pubkey %d has wrong length", i)
	}

	// The same indices must always derive the same keys.
	privAgain, _, err := interop.DeterministicallyGenerateKeys(0, 10)
	require.NoError(t, err)
	for i := range priv {
		assert.DeepEqual(t, priv[i].Marshal(), privAgain[i].Marshal())
	}
}

func TestDeterministicallyGenerateKeys_StartIndex(t *testing.T) {
	all, _, err := interop.DeterministicallyGenerateKeys(0, 8)
	require.NoError(t, err)
	tail, _, err := interop.DeterministicallyGenerateKeys(4, 4)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.DeepEqual(t, all[4+i].Marshal(), tail[i].Marshal())
	}
}
