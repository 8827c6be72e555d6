// Command ufscp replaces a destination inode's content with a host file's
// bytes. Grounded on ds3cp.cpp: read the whole source file, then write it
// as the destination inode's full content.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/xydxydxyd1/ufs/diskimg"
)

func main() {
	app := &cli.App{
		Name:      "ufscp",
		Usage:     "Copy a host file's bytes into a filesystem inode",
		ArgsUsage: "diskImageFile srcFile dstInode",
		Action:    cp,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("ufscp: %s", err)
	}
}

func cp(ctx *cli.Context) error {
	if ctx.Args().Len() != 3 {
		return cli.Exit(fmt.Sprintf("%s: diskImageFile srcFile dstInode", ctx.App.Name), 1)
	}
	image, srcPath := ctx.Args().Get(0), ctx.Args().Get(1)
	dstInum, err := strconv.ParseUint(ctx.Args().Get(2), 10, 32)
	if err != nil {
		return cli.Exit("Could not write to dst_file", 1)
	}

	content, err := os.ReadFile(srcPath)
	if err != nil {
		return cli.Exit("Could not write to dst_file", 1)
	}

	fsys, f, err := diskimg.OpenFileSystem(image)
	if err != nil {
		return cli.Exit("Could not write to dst_file", 1)
	}
	defer f.Close()

	written, err := fsys.Write(uint32(dstInum), content, len(content))
	if err != nil {
		return cli.Exit("Could not write to dst_file", 1)
	}
	if written != len(content) {
		// Short write: the destination now holds a truncated prefix of the
		// source, matching classic POSIX cp-onto-a-full-filesystem behavior
		// rather than rolling the copy back.
		return cli.Exit(fmt.Sprintf("Could not write to dst_file: wrote %d of %d bytes", written, len(content)), 1)
	}

	return nil
}
