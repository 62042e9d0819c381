package h2map

import (
	"fmt"

	"github.com/samcharles93/h2tags/pkg/blam"
)

// Signature is the XOR of every little-endian u32 word from SignatureStart
// to the end of the file. A trailing partial word is ignored.
func Signature(data []byte) uint32 {
	var sig uint32
	for off := SignatureStart; off+4 <= len(data); off += 4 {
		sig ^= blam.U32(data, off)
	}
	return sig
}

// StoreSignature recomputes the signature of data and writes it into the
// header. data must be writable.
func StoreSignature(data []byte) (uint32, error) {
	if len(data) < HeaderSize {
		return 0, fmt.Errorf("%w: %d bytes is smaller than the header", ErrCorruptMap, len(data))
	}
	sig := Signature(data)
	blam.PutU32(data, signatureOffset, sig)
	return sig, nil
}
