// Command ufsrm unlinks a name from a directory. Grounded on ds3rm.cpp
// verbatim.
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
		Name:      "ufsrm",
		Usage:     "Remove a directory entry",
		ArgsUsage: "diskImageFile parentInode entryName",
		Action:    rm,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("ufsrm: %s", err)
	}
}

func rm(ctx *cli.Context) error {
	if ctx.Args().Len() != 3 {
		return cli.Exit(fmt.Sprintf("%s: diskImageFile parentInode entryName", ctx.App.Name), 1)
	}
	image := ctx.Args().Get(0)
	parentInum, err := strconv.ParseUint(ctx.Args().Get(1), 10, 32)
	if err != nil {
		return cli.Exit("Error removing entry", 1)
	}
	name := ctx.Args().Get(2)

	fsys, f, err := diskimg.OpenFileSystem(image)
	if err != nil {
		return cli.Exit("Error removing entry", 1)
	}
	defer f.Close()

	if err := fsys.Unlink(uint32(parentInum), name); err != nil {
		return cli.Exit("Error removing entry", 1)
	}

	return nil
}
