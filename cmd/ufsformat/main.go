// Command ufsformat creates a fresh filesystem image. It isn't part of the
// original five utilities -- something has to produce an image those five
// can operate on -- so it's modeled on disko's own Format(stat
// disko.FSStat) entry point rather than a gunrock_web tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/xydxydxyd1/ufs/diskimg"
	"github.com/xydxydxyd1/ufs/ufs"
)

func main() {
	app := &cli.App{
		Name:      "ufsformat",
		Usage:     "Create a new filesystem image",
		ArgsUsage: "diskImageFile",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "blocks", Usage: "total blocks in the image"},
			&cli.UintFlag{Name: "inodes", Usage: "number of inodes"},
			&cli.UintFlag{Name: "data", Usage: "number of data blocks"},
			&cli.StringFlag{Name: "preset", Usage: "named geometry preset (overrides blocks/inodes/data)"},
		},
		Action: formatImage,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("ufsformat: %s", err)
	}
}

func formatImage(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return cli.Exit(fmt.Sprintf("%s: diskImageFile", ctx.App.Name), 1)
	}
	path := ctx.Args().First()

	totalBlocks := uint32(ctx.Uint("blocks"))
	numInodes := uint32(ctx.Uint("inodes"))
	numData := uint32(ctx.Uint("data"))

	if preset := ctx.String("preset"); preset != "" {
		g, err := diskimg.Preset(preset)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		totalBlocks, numInodes, numData = g.TotalBlocks, g.NumInodes, g.NumData
	}

	if totalBlocks == 0 || numInodes == 0 || numData == 0 {
		return cli.Exit("must specify --preset or all of --blocks/--inodes/--data", 1)
	}

	f, err := diskimg.Create(path, totalBlocks)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to create image: %s", err), 2)
	}
	defer f.Close()

	if _, err := ufs.Format(f, totalBlocks, numInodes, numData); err != nil {
		return cli.Exit(fmt.Sprintf("failed to format image: %s", err), 2)
	}

	fmt.Printf("formatted %s: %d blocks, %d inodes, %d data blocks\n", path, totalBlocks, numInodes, numData)
	return nil
}
