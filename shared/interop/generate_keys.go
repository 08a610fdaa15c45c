// Package interop bootstraps deterministic validator sets for test networks.
// Private keys are derived from the validator index alone, so separate
// processes handed the same genesis parameters arrive at the same registry.
package interop

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"
	"github.com/zephyrchain/zephyr/shared/bls"
	"github.com/zephyrchain/zephyr/shared/hashutil"
)

// DeterministicallyGenerateKeys creates BLS private keys using a fixed curve order
// according to the algorithm specified in the interop mock start section of the
// consensus test format.
func DeterministicallyGenerateKeys(startIndex, numKeys uint64) ([]bls.SecretKey, []bls.PublicKey, error) {
	privKeys := make([]bls.SecretKey, numKeys)
	pubKeys := make([]bls.PublicKey, numKeys)
	order := new(big.Int)
	if _, ok := order.SetString(bls.CurveOrder, 10); !ok {
		return nil, nil, errors.New("could not set bls curve order as big int")
	}
	for i := startIndex; i < startIndex+numKeys; i++ {
		enc := make([]byte, 32)
		binary.LittleEndian.PutUint32(enc, uint32(i))
		hash := hashutil.Hash(enc)
		// Reverse byte order to big endian for use with big ints.
		b := reverseByteOrder(hash[:])
		num := new(big.Int).SetBytes(b)
		num = num.Mod(num, order)
		numBytes := num.Bytes()
		// Pad the key at the start with zero bytes to make it into a 32 byte key.
		if len(numBytes) < 32 {
			emptyBytes := make([]byte, 32-len(numBytes))
			numBytes = append(emptyBytes, numBytes...)
		}
		priv, err := bls.SecretKeyFromBytes(numBytes)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "could not create bls secret key at index %d from raw bytes", i)
		}
		privKeys[i-startIndex] = priv
		pubKeys[i-startIndex] = priv.PublicKey()
	}
	return privKeys, pubKeys, nil
}

// Switch the endianness of a byte slice by reversing its order.
func reverseByteOrder(input []byte) []byte {
	b := make([]byte, len(input))
	copy(b, input)
	for i := 0; i < len(b)/2; i++ {
		b[i], b[len(b)-i-1] = b[len(b)-i-1], b[i]
	}
	return b
}
