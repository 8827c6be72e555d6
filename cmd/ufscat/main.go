// Command ufscat prints a regular file's block pointers and raw content.
// Grounded on ds3cat.cpp verbatim: "File blocks", one pointer per line, a
// blank line, "File data", then the bytes themselves.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/xydxydxyd1/ufs/diskimg"
	"github.com/xydxydxyd1/ufs/inode"
)

func main() {
	app := &cli.App{
		Name:      "ufscat",
		Usage:     "Print a regular file's block pointers and content",
		ArgsUsage: "diskImageFile inodeNumber",
		Action:    cat,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("ufscat: %s", err)
	}
}

func cat(ctx *cli.Context) error {
	if ctx.Args().Len() != 2 {
		return cli.Exit(fmt.Sprintf("%s: diskImageFile inodeNumber", ctx.App.Name), 1)
	}
	image := ctx.Args().Get(0)
	inum, err := strconv.ParseUint(ctx.Args().Get(1), 10, 32)
	if err != nil {
		return cli.Exit("Error reading file", 1)
	}

	fsys, f, err := diskimg.OpenFileSystem(image)
	if err != nil {
		return cli.Exit("Error reading file", 1)
	}
	defer f.Close()

	in, err := fsys.Stat(uint32(inum))
	if err != nil || in.Type == inode.Directory {
		return cli.Exit("Error reading file", 1)
	}

	fmt.Println("File blocks")
	for i := 0; i < in.NumBlocksUsed(); i++ {
		fmt.Println(in.Direct[i])
	}
	fmt.Println()

	fmt.Println("File data")
	buf := make([]byte, in.Size)
	if err := fsys.Read(uint32(inum), buf, int(in.Size)); err != nil {
		return cli.Exit("Error reading file", 1)
	}
	os.Stdout.Write(buf)

	return nil
}
