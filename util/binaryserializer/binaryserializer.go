package binaryserializer

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// maxVarBytesLength caps length prefixed fields read back from the ledger.
// No ledger record carries a field anywhere close to it.
const maxVarBytesLength = 1 << 16

// Ledger records are little-endian while ledger keys are big-endian so that
// heights and round numbers sort numerically inside the key space.

// Uint8 reads a single byte from the provided reader.
func Uint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.WithStack(err)
	}
	return buf[0], nil
}

// Uint32 reads four little-endian bytes from the provided reader.
func Uint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// Uint64 reads eight little-endian bytes from the provided reader.
func Uint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// Bytes fills dst from the provided reader.
func Bytes(r io.Reader, dst []byte) error {
	_, err := io.ReadFull(r, dst)
	return errors.WithStack(err)
}

// VarBytes reads a uint32 length prefix followed by that many bytes.
func VarBytes(r io.Reader) ([]byte, error) {
	length, err := Uint32(r)
	if err != nil {
		return nil, err
	}
	if length > maxVarBytesLength {
		return nil, errors.Errorf("field length %d exceeds the maximum of %d",
			length, maxVarBytesLength)
	}
	buf := make([]byte, length)
	err = Bytes(r, buf)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// PutUint8 writes a single byte to the given writer.
func PutUint8(w io.Writer, val uint8) error {
	_, err := w.Write([]byte{val})
	return errors.WithStack(err)
}

// PutUint32 writes the little-endian encoding of val to the given writer.
func PutUint32(w io.Writer, val uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], val)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

// PutUint64 writes the little-endian encoding of val to the given writer.
func PutUint64(w io.Writer, val uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], val)
	_, err := w.Write(buf[:])
	return errors.WithStack(err)
}

// PutVarBytes writes a uint32 length prefix followed by val.
func PutVarBytes(w io.Writer, val []byte) error {
	err := PutUint32(w, uint32(len(val)))
	if err != nil {
		return err
	}
	_, err = w.Write(val)
	return errors.WithStack(err)
}

// Uint32Key returns the big-endian encoding of val for use as a key suffix.
func Uint32Key(val uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, val)
	return key
}

// Uint64Key returns the big-endian encoding of val for use as a key suffix.
func Uint64Key(val uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, val)
	return key
}

// KeyUint32 decodes a key suffix written by Uint32Key.
func KeyUint32(key []byte) (uint32, error) {
	if len(key) != 4 {
		return 0, errors.Errorf("invalid uint32 key length %d", len(key))
	}
	return binary.BigEndian.Uint32(key), nil
}
