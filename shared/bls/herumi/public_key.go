package herumi

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	bls12 "github.com/herumi/bls-eth-go-binary/bls"
	"github.com/pkg/errors"
	"github.com/zephyrchain/zephyr/shared/bls/iface"
	"github.com/zephyrchain/zephyr/shared/params"
)

var maxKeys = 100000
var pubkeyCache, _ = lru.New(maxKeys)

// PublicKey used in the BLS signature scheme.
type PublicKey struct {
	p *bls12.PublicKey
}

// PublicKeyFromBytes creates a BLS public key from a BigEndian byte slice.
func PublicKeyFromBytes(pubKey []byte) (iface.PublicKey, error) {
	if len(pubKey) != params.BeaconConfig().BLSPubkeyLength {
		return nil, fmt.Errorf("public key must be %d bytes", params.BeaconConfig().BLSPubkeyLength)
	}
	if cv, ok := pubkeyCache.Get(string(pubKey)); ok {
		return cv.(*PublicKey).Copy(), nil
	}
	p := &bls12.PublicKey{}
	if err := p.Deserialize(pubKey); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal bytes into public key")
	}
	pubKeyObj := &PublicKey{p: p}
	pubkeyCache.Add(string(pubKey), pubKeyObj.Copy())
	return pubKeyObj, nil
}

// Marshal a public key into a BigEndian byte slice.
func (p *PublicKey) Marshal() []byte {
	return p.p.Serialize()
}

// Copy the public key to a new pointer reference.
func (p *PublicKey) Copy() iface.PublicKey {
	np := *p.p
	return &PublicKey{p: &np}
}
