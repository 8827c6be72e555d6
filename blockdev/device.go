// Package blockdev implements the fixed-size block I/O abstraction the rest
// of the filesystem core is built on, plus the transaction mechanism that
// gives mutating operations whole-operation rollback.
//
// Device is not reentrant and not safe for concurrent use: callers must
// serialize access to it, per the single-threaded cooperative scheduling
// model the core is built for.
package blockdev

import (
	"fmt"
	"io"

	"github.com/xydxydxyd1/ufs/ufserrors"
)

// Device is a fixed-size block device layered on top of any
// io.ReadWriteSeeker -- typically an *os.File for a real disk image, or an
// in-memory buffer (via xaionaro-go/bytesextra) in tests.
type Device struct {
	stream      io.ReadWriteSeeker
	blockSize   uint
	totalBlocks uint

	// shadow holds the pre-image of every block written since Begin, keyed
	// by block number. Its presence (not its contents) marks "touched since
	// Begin"; Commit discards it, Rollback writes every entry back.
	shadow map[uint][]byte
}

// Open wraps stream as a Device of totalBlocks blocks of blockSize bytes
// each. stream must already be at least blockSize*totalBlocks bytes long.
func Open(stream io.ReadWriteSeeker, blockSize, totalBlocks uint) (*Device, error) {
	if blockSize == 0 {
		return nil, ufserrors.ErrIOFailed.WithMessage("block size must be nonzero")
	}
	return &Device{stream: stream, blockSize: blockSize, totalBlocks: totalBlocks}, nil
}

// BlockSize returns the device's fixed block size, in bytes.
func (d *Device) BlockSize() uint {
	return d.blockSize
}

// TotalBlocks returns the number of blocks on the device.
func (d *Device) TotalBlocks() uint {
	return d.totalBlocks
}

func (d *Device) checkBounds(n uint) error {
	if n >= d.totalBlocks {
		return ufserrors.ErrIOFailed.WithMessage(
			fmt.Sprintf("block %d out of range [0, %d)", n, d.totalBlocks),
		)
	}
	return nil
}

func (d *Device) offsetOf(n uint) int64 {
	return int64(n) * int64(d.blockSize)
}

// ReadBlock fills buf[0:BlockSize] with the contents of block n.
func (d *Device) ReadBlock(n uint, buf []byte) error {
	if err := d.checkBounds(n); err != nil {
		return err
	}
	if uint(len(buf)) < d.blockSize {
		return ufserrors.ErrIOFailed.WithMessage("destination buffer smaller than block size")
	}

	if _, err := d.stream.Seek(d.offsetOf(n), io.SeekStart); err != nil {
		return ufserrors.ErrIOFailed.Wrap(err)
	}
	if _, err := io.ReadFull(d.stream, buf[:d.blockSize]); err != nil {
		return ufserrors.ErrIOFailed.Wrap(err)
	}
	return nil
}

// WriteBlock overwrites block n with buf[0:BlockSize]. If a transaction is
// open and this is the first write to n since Begin, the block's current
// contents are snapshotted first so Rollback can restore them.
func (d *Device) WriteBlock(n uint, buf []byte) error {
	if err := d.checkBounds(n); err != nil {
		return err
	}
	if uint(len(buf)) < d.blockSize {
		return ufserrors.ErrIOFailed.WithMessage("source buffer smaller than block size")
	}

	if d.shadow != nil {
		if _, alreadyShadowed := d.shadow[n]; !alreadyShadowed {
			preimage := make([]byte, d.blockSize)
			if err := d.readBlockRaw(n, preimage); err != nil {
				return err
			}
			d.shadow[n] = preimage
		}
	}

	return d.writeBlockRaw(n, buf[:d.blockSize])
}

func (d *Device) readBlockRaw(n uint, buf []byte) error {
	if _, err := d.stream.Seek(d.offsetOf(n), io.SeekStart); err != nil {
		return ufserrors.ErrIOFailed.Wrap(err)
	}
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return ufserrors.ErrIOFailed.Wrap(err)
	}
	return nil
}

func (d *Device) writeBlockRaw(n uint, buf []byte) error {
	if _, err := d.stream.Seek(d.offsetOf(n), io.SeekStart); err != nil {
		return ufserrors.ErrIOFailed.Wrap(err)
	}
	if _, err := d.stream.Write(buf); err != nil {
		return ufserrors.ErrIOFailed.Wrap(err)
	}
	return nil
}

// Begin records the current state of every block that gets written from now
// until the matching Commit or Rollback. Nesting is not supported: calling
// Begin while a transaction is already open is an error.
func (d *Device) Begin() error {
	if d.shadow != nil {
		return ufserrors.ErrIOFailed.WithMessage("a transaction is already open")
	}
	d.shadow = make(map[uint][]byte)
	return nil
}

// InTransaction reports whether a transaction is currently open.
func (d *Device) InTransaction() bool {
	return d.shadow != nil
}

// Commit drops the snapshot taken since Begin; all writes made during the
// transaction become durable.
func (d *Device) Commit() error {
	if d.shadow == nil {
		return ufserrors.ErrIOFailed.WithMessage("no transaction is open")
	}
	d.shadow = nil
	return nil
}

// Rollback restores the pre-Begin contents of every block written since
// Begin, then closes the transaction.
//
// An I/O error while restoring a block leaves the disk in an undefined
// state; this is a fundamental limitation of copy-on-write rollback without
// a write-ahead log, and is documented rather than recovered from.
func (d *Device) Rollback() error {
	if d.shadow == nil {
		return ufserrors.ErrIOFailed.WithMessage("no transaction is open")
	}

	shadow := d.shadow
	d.shadow = nil

	for blockNum, preimage := range shadow {
		if err := d.writeBlockRaw(blockNum, preimage); err != nil {
			return ufserrors.ErrIOFailed.WithMessage(
				fmt.Sprintf("fatal: rollback failed restoring block %d: %s", blockNum, err),
			)
		}
	}
	return nil
}
