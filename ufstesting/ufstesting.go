// Package ufstesting builds in-memory disk images for tests: blank images
// to format from scratch, random-content images for exercising raw block
// I/O, and images decompressed from RLE8+gzip bytes.
package ufstesting

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/xydxydxyd1/ufs/layout"
	"github.com/xydxydxyd1/ufs/ufs"
	"github.com/xydxydxyd1/ufs/utilities/compression"
)

// NewBlankImage returns an all-zero in-memory image of totalBlocks blocks,
// ready to be passed to ufs.Format.
func NewBlankImage(totalBlocks uint32) io.ReadWriteSeeker {
	return bytesextra.NewReadWriteSeeker(make([]byte, uint(totalBlocks)*layout.BlockSize))
}

// NewRandomImage returns totalBlocks blocks of random bytes, for tests that
// need to prove a region gets overwritten rather than merely not-zero.
func NewRandomImage(t *testing.T, totalBlocks uint32) []byte {
	data := make([]byte, uint(totalBlocks)*layout.BlockSize)
	_, err := rand.Read(data)
	require.NoErrorf(t, err, "failed to fill %d random blocks", totalBlocks)
	return data
}

// LoadCompressedImage decompresses an RLE8+gzip image (as produced by
// compression.CompressImage) into a fresh in-memory stream. Writes to the
// returned stream never affect compressedImageBytes, and the stream's size
// is fixed at totalBlocks*layout.BlockSize.
func LoadCompressedImage(t *testing.T, compressedImageBytes []byte, totalBlocks uint32) io.ReadWriteSeeker {
	require.Greater(t, len(compressedImageBytes), 0, "compressed image is empty")

	imageBytes, err := compression.DecompressImageToBytes(bytes.NewReader(compressedImageBytes))
	require.NoError(t, err)

	require.Equal(
		t,
		uint(totalBlocks)*layout.BlockSize,
		uint(len(imageBytes)),
		"uncompressed image is wrong size",
	)
	return bytesextra.NewReadWriteSeeker(imageBytes)
}

// CompressImageBytes round-trips raw image bytes through RLE8+gzip, for
// tests that build an image in memory and want compressed bytes to feed back
// through LoadCompressedImage.
func CompressImageBytes(t *testing.T, raw []byte) []byte {
	var out bytes.Buffer
	_, err := compression.CompressImage(bytes.NewReader(raw), &out)
	require.NoError(t, err)
	return out.Bytes()
}

// FormatBlank formats a brand new blank in-memory image with the given
// geometry and returns the open FileSystem. Any formatting error fails the
// test immediately.
func FormatBlank(t *testing.T, totalBlocks, numInodes, numData uint32) *ufs.FileSystem {
	stream := NewBlankImage(totalBlocks)
	fs, err := ufs.Format(stream, totalBlocks, numInodes, numData)
	require.NoError(t, err)
	return fs
}
