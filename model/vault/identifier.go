package vault

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Identifier is the unique identifier of a vault transaction. It is the
// keccak-256 content hash of the unsigned transaction payload, so proposing
// the same payload twice yields the same identifier.
type Identifier [32]byte

// ZeroID is the identifier of an empty payload slot.
var ZeroID = Identifier{}

// MakeID hashes the given unsigned payload into a transaction identifier.
func MakeID(payload []byte) Identifier {
	var id Identifier
	copy(id[:], crypto.Keccak256(payload))
	return id
}

// HexToID parses a hex-encoded identifier, with or without 0x prefix.
func HexToID(s string) (Identifier, error) {
	var id Identifier
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return ZeroID, fmt.Errorf("could not decode identifier: %w", err)
	}
	if len(b) != len(id) {
		return ZeroID, fmt.Errorf("invalid identifier length (%d)", len(b))
	}
	copy(id[:], b)
	return id, nil
}

func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := HexToID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// An Address identifies an account on chain. Addresses are compared
// case-insensitively, so they are normalized to lower case on ingestion.
type Address string

// NormalizeAddress lower-cases the hex representation of an address.
func NormalizeAddress(s string) Address {
	return Address(strings.ToLower(s))
}

func (a Address) Equals(other Address) bool {
	return strings.EqualFold(string(a), string(other))
}

func (a Address) String() string {
	return string(a)
}
