// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/vedhavyas/go-subkey/v2"

	"github.com/opentensor/subtensor-js-tests-sub000/consts"
)

// Keypair is an sr25519 signing identity. Coldkeys and hotkeys are both
// Keypairs; the role is a property of how they are used.
type Keypair struct {
	pair   signature.KeyringPair
	format uint16
}

// FromURI derives a keypair from a secret URI ("//Alice", a mnemonic, or a
// 0x-prefixed seed).
func FromURI(uri string, format uint16) (*Keypair, error) {
	p, err := signature.KeyringPairFromSecret(uri, format)
	if err != nil {
		return nil, fmt.Errorf("derive keypair: %w", err)
	}
	return &Keypair{pair: p, format: format}, nil
}

func MustFromURI(uri string) *Keypair {
	k, err := FromURI(uri, consts.SS58Format)
	if err != nil {
		panic(err)
	}
	return k
}

// Generate returns a fresh keypair from a random 32 byte seed.
func Generate(format uint16) (*Keypair, error) {
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return nil, err
	}
	return FromURI("0x"+hex.EncodeToString(seed), format)
}

func (k *Keypair) Address() string { return k.pair.Address }

// AccountID is the 32 byte public key.
func (k *Keypair) AccountID() []byte {
	out := make([]byte, len(k.pair.PublicKey))
	copy(out, k.pair.PublicKey)
	return out
}

func (k *Keypair) URI() string { return k.pair.URI }

// KeyringPair exposes the underlying pair for extrinsic signing.
func (k *Keypair) KeyringPair() signature.KeyringPair { return k.pair }

func (k *Keypair) String() string { return k.pair.Address }

// EncodeAddress renders a 32 byte account id as SS58.
func EncodeAddress(accountID []byte, format uint16) string {
	return subkey.SS58Encode(accountID, format)
}

// DecodeAddress parses an SS58 address into its account id.
func DecodeAddress(address string) ([]byte, error) {
	_, pub, err := subkey.SS58Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, err)
	}
	if len(pub) != 32 {
		return nil, fmt.Errorf("%w: account id length %d", ErrInvalidAddress, len(pub))
	}
	return pub, nil
}
