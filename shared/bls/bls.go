// Package bls implements a go-wrapper around a library leveraging the
// BLS12-381 curve. This package exposes a public API for verifying and
// aggregating BLS signatures used by the beacon chain.
package bls

import (
	"github.com/zephyrchain/zephyr/shared/bls/herumi"
	"github.com/zephyrchain/zephyr/shared/bls/iface"
)

// CurveOrder for the BLS12-381 curve.
const CurveOrder = "52435875175126190479447740508185965837690552500527637822603658699938581184513"

// SecretKey represents a BLS secret or private key.
type SecretKey = iface.SecretKey

// PublicKey represents a BLS public key.
type PublicKey = iface.PublicKey

// Signature represents a BLS signature.
type Signature = iface.Signature

// RandKey creates a new private key using a random input.
func RandKey() SecretKey {
	return herumi.RandKey()
}

// SecretKeyFromBytes creates a BLS private key from a BigEndian byte slice.
func SecretKeyFromBytes(privKey []byte) (SecretKey, error) {
	return herumi.SecretKeyFromBytes(privKey)
}

// PublicKeyFromBytes creates a BLS public key from a BigEndian byte slice.
func PublicKeyFromBytes(pubKey []byte) (PublicKey, error) {
	return herumi.PublicKeyFromBytes(pubKey)
}

// SignatureFromBytes creates a BLS signature from a LittleEndian byte slice.
func SignatureFromBytes(sig []byte) (Signature, error) {
	return herumi.SignatureFromBytes(sig)
}

// AggregateSignatures converts a list of signatures into a single, aggregated sig.
func AggregateSignatures(sigs []Signature) Signature {
	return herumi.AggregateSignatures(sigs)
}
