// Command ufsbits dumps a filesystem image's super block and both
// allocation bitmaps, for debugging. Grounded on ds3bits.cpp: only the
// first num_inodes/8 and num_data/8 bitmap bytes are printed, matching the
// original's behavior exactly.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/xydxydxyd1/ufs/diskimg"
)

func main() {
	app := &cli.App{
		Name:      "ufsbits",
		Usage:     "Dump a filesystem image's super block and bitmaps",
		ArgsUsage: "diskImageFile",
		Action:    bits,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("ufsbits: %s", err)
	}
}

func bits(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return cli.Exit(fmt.Sprintf("%s: diskImageFile", ctx.App.Name), 1)
	}
	image := ctx.Args().Get(0)

	fsys, f, err := diskimg.OpenFileSystem(image)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open %s: %s", image, err), 1)
	}
	defer f.Close()

	super := fsys.Super()

	fmt.Println("Super")
	fmt.Println("inode_region_addr", super.InodeRegionAddr)
	fmt.Println("inode_region_len", super.InodeRegionLen)
	fmt.Println("num_inodes", super.NumInodes)
	fmt.Println("data_region_addr", super.DataRegionAddr)
	fmt.Println("data_region_len", super.DataRegionLen)
	fmt.Println("num_data", super.NumData)
	fmt.Println()

	fmt.Println("Inode bitmap")
	printBytes(fsys.Table().Bitmap().Data(), int(super.NumInodes/8))
	fmt.Println()

	fmt.Println("Data bitmap")
	printBytes(fsys.Region().Bitmap().Data(), int(super.NumData/8))

	return nil
}

func printBytes(data []byte, count int) {
	if count > len(data) {
		count = len(data)
	}
	for i := 0; i < count; i++ {
		fmt.Printf("%d ", data[i])
	}
	fmt.Println()
}
