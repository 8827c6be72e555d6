// Command ufsls lists the entries of a directory, or a single regular
// file, named by an absolute path. Grounded on ds3ls.cpp: same
// resolve-path-then-sort-by-name-then-print behavior.
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/xydxydxyd1/ufs/dirent"
	"github.com/xydxydxyd1/ufs/diskimg"
	"github.com/xydxydxyd1/ufs/inode"
)

func main() {
	app := &cli.App{
		Name:      "ufsls",
		Usage:     "List a directory's entries",
		ArgsUsage: "diskImageFile path",
		Action:    list,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("ufsls: %s", err)
	}
}

func list(ctx *cli.Context) error {
	if ctx.Args().Len() != 2 {
		return cli.Exit(fmt.Sprintf("%s: diskImageFile path", ctx.App.Name), 1)
	}
	image, path := ctx.Args().Get(0), ctx.Args().Get(1)

	fsys, f, err := diskimg.OpenFileSystem(image)
	if err != nil {
		return cli.Exit("Directory not found", 1)
	}
	defer f.Close()

	inum, err := fsys.ResolvePath(path)
	if err != nil {
		return cli.Exit("Directory not found", 1)
	}

	in, err := fsys.Stat(inum)
	if err != nil {
		return cli.Exit("Directory not found", 1)
	}

	var entries []dirent.Entry
	if in.Type == inode.Directory {
		buf := make([]byte, in.Size)
		if err := fsys.Read(inum, buf, int(in.Size)); err != nil {
			return cli.Exit("Directory not found", 1)
		}
		for off := 0; off+dirent.RecordSize <= len(buf); off += dirent.RecordSize {
			entries = append(entries, dirent.Decode(buf[off:off+dirent.RecordSize]))
		}
	} else {
		entries = []dirent.Entry{{Inum: inum, Name: basename(path)}}
	}

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare([]byte(entries[i].Name), []byte(entries[j].Name)) < 0
	})
	for _, e := range entries {
		fmt.Printf("%d\t%s\n", e.Inum, e.Name)
	}
	return nil
}

func basename(path string) string {
	trimmed := strings.TrimRight(path, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
