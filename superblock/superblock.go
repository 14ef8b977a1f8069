// Package superblock models the canonical-chain commitment the dispute
// protocol reveals at kick_off_2: a block header satisfying a
// proof-of-work threshold, used to bind the operator's claimed canonical
// chain into the committed witness (glossary "Superblock").
package superblock

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"lukechampine.com/blake3"
)

// MessageLength is the byte length of a serialized superblock header
// commitment message, matching commitment.SuperblockLength.
const MessageLength = 80

// HashMessageLength is the byte length of the commitment message carrying
// the header's hash.
const HashMessageLength = 32

// Header is a Bitcoin block header meeting the superblock difficulty
// threshold. It wraps wire.BlockHeader rather than re-deriving
// serialization, per the non-goal "low-level Bitcoin serialization...
// consumed as libraries".
type Header struct {
	wire.BlockHeader
}

// Serialize renders the header as the fixed 80-byte commitment message.
func (h Header) Serialize() ([MessageLength]byte, error) {
	var buf [MessageLength]byte
	w := fixedWriter{buf: buf[:0]}
	if err := h.BlockHeader.Serialize(&w); err != nil {
		return buf, err
	}
	copy(buf[:], w.buf)
	return buf, nil
}

// Hash returns the double-SHA256 block hash used as the chain tip
// identifier and compared against the superblock weight threshold below,
// matching the header-hash algorithm Bitcoin itself uses. Kept distinct
// from the BLAKE3 SuperblockHash commitment.
func (h Header) Hash() chainhash.Hash {
	return h.BlockHeader.BlockHash()
}

// MeetsSuperblockThreshold reports whether h's hash, interpreted as a
// big-endian integer, is less than or equal to threshold -- the
// proof-of-work bar a header must clear to serve as a superblock
// commitment (glossary "Superblock").
func MeetsSuperblockThreshold(h Header, threshold chainhash.Hash) bool {
	hash := h.Hash()
	return compareBE(hash[:], threshold[:]) <= 0
}

func compareBE(a, b []byte) int {
	// chainhash.Hash is stored internal-byte-order (little-endian display
	// reversed); compare as big-endian integers by walking from the most
	// significant byte, which is the last index in internal order.
	for i := len(a) - 1; i >= 0; i-- {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// SuperblockHash derives the commitment message for the SuperblockHash
// message id: the BLAKE3 digest of the header's serialized form, used so
// the witness can reveal a shorter commitment than the full header when
// only the hash is needed downstream.
func SuperblockHash(h Header) ([HashMessageLength]byte, error) {
	raw, err := h.Serialize()
	if err != nil {
		return [HashMessageLength]byte{}, err
	}
	return blake3.Sum256(raw[:]), nil
}

// FindSuperblock scans candidates in order and returns the first header
// meeting threshold, along with its index. Candidates are assumed to be
// supplied in the operator's claimed canonical-chain order; the first
// match is what kick_off_2 commits to.
func FindSuperblock(candidates []Header, threshold chainhash.Hash) (Header, int, bool) {
	for i, h := range candidates {
		if MeetsSuperblockThreshold(h, threshold) {
			return h, i, true
		}
	}
	return Header{}, -1, false
}

// StartTimeMessage encodes a block height as the 4-byte StartTime
// commitment message (big-endian, matching commitment.StartTimeLength).
func StartTimeMessage(height uint32) [4]byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], height)
	return buf
}

// GetStartTimeBlockNumber decodes a StartTime commitment message back
// into a block height, used when validating a revealed start_time
// witness.
func GetStartTimeBlockNumber(msg [4]byte) uint32 {
	return binary.BigEndian.Uint32(msg[:])
}

// fixedWriter adapts a byte slice into an io.Writer, used to serialize a
// wire.BlockHeader without an intermediate bytes.Buffer allocation.
type fixedWriter struct {
	buf []byte
}

func (w *fixedWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}
