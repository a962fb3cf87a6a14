package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// LengthPrefix is the size of the big-endian payload length written by Frame.
const LengthPrefix = 4

// MaxPayload is the longest payload the length prefix can describe.
const MaxPayload = math.MaxUint32

// CheckPayload returns ErrCapacity for payloads beyond MaxPayload.
func CheckPayload(n int) error {
	if uint64(n) > MaxPayload {
		return fmt.Errorf("%w: %d bytes exceed the 32-bit length prefix", ErrCapacity, n)
	}
	return nil
}

// PutIndex writes idx big-endian into buf[:n].
func PutIndex(buf []byte, n, idx int) {
	for i := n - 1; i >= 0; i-- {
		buf[i] = byte(idx)
		idx >>= 8
	}
}

// ReadIndex reads the big-endian index in buf[:n].
func ReadIndex(buf []byte, n int) int {
	v := 0
	for _, b := range buf[:n] {
		v = v<<8 | int(b)
	}
	return v
}

// IndexLimit bounds the block index a decoder places when it holds n
// sequences of a one-block-per-sequence codec. A larger index means more
// than 63 of every 64 sequences are missing, so placing it could not
// complete the payload; decoders report it as a corrupt unit instead of
// growing the block table.
func IndexLimit(n int) int { return 64*n + 64 }

// FrameBlocks returns how many blocks Frame produces for an n-byte payload.
func FrameBlocks(n, blockSize int) int {
	return (LengthPrefix + n + blockSize - 1) / blockSize
}

// Frame prefixes payload with its uint32 length and cuts the stream into
// blockSize chunks, zero-padding the last one. blockSize must be at least
// LengthPrefix so block 0 always carries the whole length field.
func Frame(payload []byte, blockSize int) [][]byte {
	k := FrameBlocks(len(payload), blockSize)
	stream := make([]byte, k*blockSize)
	binary.BigEndian.PutUint32(stream, uint32(len(payload)))
	copy(stream[LengthPrefix:], payload)

	blocks := make([][]byte, k)
	for i := range blocks {
		lo, hi := i*blockSize, (i+1)*blockSize
		blocks[i] = stream[lo:hi:hi]
	}
	return blocks
}

// Assembly is the outcome of reassembling a framed stream.
type Assembly struct {
	// Payload is the contiguous prefix of the payload that could be rebuilt.
	Payload []byte
	// Recovered counts payload bytes held by present blocks.
	Recovered int
	// Total is the embedded payload length, -1 when block 0 is missing.
	Total int
	// Missing lists absent block indices.
	Missing  []int
	Complete bool
}

// Assemble rebuilds a Frame from blocks, where a nil entry marks a missing
// block. When block 0 is present its length field fixes the block count;
// lengths implying more than limit blocks are treated as unknown.
func Assemble(blocks [][]byte, blockSize, limit int) Assembly {
	out := Assembly{Total: -1}
	count := len(blocks)
	end := count * blockSize
	known := false
	if len(blocks) > 0 && len(blocks[0]) >= LengthPrefix {
		l := int(binary.BigEndian.Uint32(blocks[0]))
		need := (LengthPrefix + l + blockSize - 1) / blockSize
		if need <= limit {
			known = true
			count = need
			end = LengthPrefix + l
			out.Total = l
		}
	}

	for i := 0; i < count; i++ {
		b := blockAt(blocks, i, blockSize)
		if b == nil {
			out.Missing = append(out.Missing, i)
			continue
		}
		lo := max(i*blockSize, LengthPrefix)
		hi := min(i*blockSize+len(b), end)
		if hi > lo {
			out.Recovered += hi - lo
		}
	}

	stream := make([]byte, 0, end)
	for i := 0; i < count; i++ {
		b := blockAt(blocks, i, blockSize)
		if b == nil {
			break
		}
		stream = append(stream, b...)
	}
	if len(stream) > end {
		stream = stream[:end]
	}
	out.Payload = []byte{}
	if len(stream) > LengthPrefix {
		out.Payload = stream[LengthPrefix:]
	}
	out.Complete = known && len(out.Missing) == 0 && len(stream) == end
	return out
}

func blockAt(blocks [][]byte, i, blockSize int) []byte {
	if i >= len(blocks) || blocks[i] == nil {
		return nil
	}
	b := blocks[i]
	if len(b) > blockSize {
		b = b[:blockSize]
	}
	return b
}
