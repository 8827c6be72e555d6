// Package byteio implements byte-granular reads and writes that may span
// block boundaries, built on top of blockdev.Device's whole-block I/O.
package byteio

import (
	"github.com/xydxydxyd1/ufs/blockdev"
)

// ReadBytes fills dst with len(dst) bytes starting at absolute byte address
// addr on d.
func ReadBytes(d *blockdev.Device, addr int64, dst []byte) error {
	return forEachChunk(d, addr, len(dst), func(blockBuf []byte, dstOff, blockOff, n int) error {
		if err := d.ReadBlock(uint(addrToBlock(addr, dstOff, d)), blockBuf); err != nil {
			return err
		}
		copy(dst[dstOff:dstOff+n], blockBuf[blockOff:blockOff+n])
		return nil
	})
}

// WriteBytes overwrites len(src) bytes starting at absolute byte address
// addr on d with the contents of src. A partial block at either end is
// read-modify-written so adjacent bytes are preserved.
func WriteBytes(d *blockdev.Device, addr int64, src []byte) error {
	return forEachChunk(d, addr, len(src), func(blockBuf []byte, srcOff, blockOff, n int) error {
		blockNum := uint(addrToBlock(addr, srcOff, d))

		full := n == len(blockBuf) && blockOff == 0
		if !full {
			if err := d.ReadBlock(blockNum, blockBuf); err != nil {
				return err
			}
		}
		copy(blockBuf[blockOff:blockOff+n], src[srcOff:srcOff+n])
		return d.WriteBlock(blockNum, blockBuf)
	})
}

func addrToBlock(addr int64, relOff int, d *blockdev.Device) int64 {
	return (addr + int64(relOff)) / int64(d.BlockSize())
}

// forEachChunk walks the byte range [addr, addr+length) as a sequence of
// (blockIndex, intraBlockOffset, length) triples, one block I/O per chunk.
// fn receives a scratch buffer exactly one block long, the offset into the
// caller's buffer this chunk corresponds to, the intra-block offset, and the
// chunk length.
func forEachChunk(
	d *blockdev.Device,
	addr int64,
	length int,
	fn func(blockBuf []byte, relOff, blockOff, n int) error,
) error {
	blockSize := int64(d.BlockSize())
	blockBuf := make([]byte, blockSize)

	remaining := length
	relOff := 0
	cursor := addr

	for remaining > 0 {
		blockOff := int(cursor % blockSize)
		chunk := int(blockSize) - blockOff
		if chunk > remaining {
			chunk = remaining
		}

		if err := fn(blockBuf, relOff, blockOff, chunk); err != nil {
			return err
		}

		cursor += int64(chunk)
		relOff += chunk
		remaining -= chunk
	}

	return nil
}
