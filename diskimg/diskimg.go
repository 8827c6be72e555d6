// Package diskimg creates and opens the backing files a FileSystem is
// layered on top of, and offers a handful of named disk-geometry presets so
// the CLI tools don't require callers to compute block/inode counts by
// hand.
package diskimg

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/xydxydxyd1/ufs/layout"
	"github.com/xydxydxyd1/ufs/ufs"
)

// Geometry names a preset combination of image size, inode count, and data
// block count.
type Geometry struct {
	Slug        string `csv:"slug"`
	Name        string `csv:"name"`
	TotalBlocks uint32 `csv:"total_blocks"`
	NumInodes   uint32 `csv:"num_inodes"`
	NumData     uint32 `csv:"num_data"`
	Notes       string `csv:"notes"`
}

//go:embed geometries.csv
var geometriesRawCSV string

var geometries = make(map[string]Geometry)

func init() {
	reader := strings.NewReader(geometriesRawCSV)
	err := gocsv.UnmarshalToCallback(reader, func(row Geometry) error {
		if _, exists := geometries[row.Slug]; exists {
			return fmt.Errorf("duplicate disk geometry preset %q", row.Slug)
		}
		geometries[row.Slug] = row
		return nil
	})
	if err != nil {
		panic(fmt.Sprintf("diskimg: malformed embedded geometries.csv: %s", err))
	}
}

// GeometryPresets returns every named preset, keyed by slug.
func GeometryPresets() map[string]Geometry {
	out := make(map[string]Geometry, len(geometries))
	for k, v := range geometries {
		out[k] = v
	}
	return out
}

// Preset looks up a geometry by slug.
func Preset(slug string) (Geometry, error) {
	g, ok := geometries[slug]
	if !ok {
		return Geometry{}, fmt.Errorf("no disk geometry preset named %q", slug)
	}
	return g, nil
}

// Create creates a new backing file at path sized for totalBlocks blocks of
// layout.BlockSize bytes each, truncated to that length (sparse on
// filesystems that support it).
func Create(path string, totalBlocks uint32) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(totalBlocks) * layout.BlockSize); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// Open opens an existing image file for reading and writing.
func Open(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR, 0644)
}

// BlocksIn returns how many whole blocks of size layout.BlockSize fit in a
// file of the given byte size.
func BlocksIn(sizeBytes int64) uint32 {
	return uint32(sizeBytes / layout.BlockSize)
}

// OpenFileSystem opens an existing image file at path and mounts it as a
// ufs.FileSystem, inferring the total block count from the file's size. The
// caller is responsible for closing the returned file once done with the
// filesystem.
func OpenFileSystem(path string) (*ufs.FileSystem, *os.File, error) {
	f, err := Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	totalBlocks := BlocksIn(info.Size())
	fsys, err := ufs.Open(f, layout.BlockSize, uint(totalBlocks))
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return fsys, f, nil
}
