package model

import (
	"bytes"

	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"
	"github.com/smartcash/smartrewardsd/domain/rewardsconfig"
)

// AddressHashSize is the size of the hash160 an address commits to.
const AddressHashSize = 20

// AddressSize is the size of an address' binary form: version byte
// followed by its hash.
const AddressSize = 1 + AddressHashSize

// ErrInvalidAddress indicates that an address string could not be decoded
// for the active network.
var ErrInvalidAddress = errors.New("invalid address")

// Address identifies the owner of an Entry. It is comparable and can be used
// as a map key.
type Address struct {
	version byte
	hash    [AddressHashSize]byte
}

// NewAddress returns an address with the given version byte and hash160.
func NewAddress(version byte, hash []byte) (Address, error) {
	if len(hash) != AddressHashSize {
		return Address{}, errors.Wrapf(ErrInvalidAddress,
			"hash length is %d, want %d", len(hash), AddressHashSize)
	}
	address := Address{version: version}
	copy(address.hash[:], hash)
	return address, nil
}

// AddressFromBytes decodes the binary form returned by Address.Bytes.
func AddressFromBytes(addressBytes []byte) (Address, error) {
	if len(addressBytes) != AddressSize {
		return Address{}, errors.Wrapf(ErrInvalidAddress,
			"address length is %d, want %d", len(addressBytes), AddressSize)
	}
	return NewAddress(addressBytes[0], addressBytes[1:])
}

// DecodeAddress decodes a base58check address string and makes sure that
// its version byte belongs to the given network.
func DecodeAddress(addressString string, params *rewardsconfig.Params) (Address, error) {
	hash, version, err := base58.CheckDecode(addressString)
	if err != nil {
		return Address{}, errors.Wrapf(ErrInvalidAddress, "%s: %s", addressString, err)
	}
	if version != params.PubKeyHashAddrID && version != params.ScriptHashAddrID {
		return Address{}, errors.Wrapf(ErrInvalidAddress,
			"%s: version %d is not a %s address", addressString, version, params.Name)
	}
	return NewAddress(version, hash)
}

// Version returns the address version byte.
func (a Address) Version() byte {
	return a.version
}

// Bytes returns the binary form of the address.
func (a Address) Bytes() []byte {
	addressBytes := make([]byte, AddressSize)
	addressBytes[0] = a.version
	copy(addressBytes[1:], a.hash[:])
	return addressBytes
}

// String returns the base58check encoding of the address.
func (a Address) String() string {
	return base58.CheckEncode(a.hash[:], a.version)
}

// Compare orders addresses by their binary form.
func (a Address) Compare(other Address) int {
	if a.version != other.version {
		if a.version < other.version {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.hash[:], other.hash[:])
}
