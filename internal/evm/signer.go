package evm

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer wraps an ECDSA private key to provide signing capabilities for EVM
// transactions. The key never leaves this struct.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// NewSigner creates a new Signer instance from an ECDSA private key.
func NewSigner(pk *ecdsa.PrivateKey) *Signer {
	if pk == nil {
		panic("private key cannot be nil")
	}
	return &Signer{
		privateKey: pk,
		address:    crypto.PubkeyToAddress(pk.PublicKey),
	}
}

// Address returns the Ethereum address associated with the Signer's private key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignTx signs the given transaction using the provided chain ID.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signedTx, err := types.SignTx(tx, types.NewLondonSigner(chainID), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signedTx, nil
}

// SignPersonalMessage signs the given message according to the EIP-191
// standard (`personal_sign`). Used to authenticate against HTTP services.
func (s *Signer) SignPersonalMessage(message []byte) ([]byte, error) {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	msgHash := crypto.Keccak256Hash(append([]byte(prefix), message...))

	sig, err := crypto.Sign(msgHash.Bytes(), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message hash: %w", err)
	}

	sig[crypto.RecoveryIDOffset] += 27

	return sig, nil
}
