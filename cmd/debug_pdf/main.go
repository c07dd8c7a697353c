package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"github.com/kpauljoseph/cardsheet/pkg/utils"
)

// debug_pdf compares two imposed PDFs, such as the output of two runs
// with the same input, byte for byte and render for render.
func main() {
	keep := flag.Bool("keep", false, "keep the rendered pages in a temp directory")
	dpi := flag.Float64("dpi", 72, "render resolution")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Println("Usage: debug_pdf [-keep] [-dpi N] sheet1.pdf sheet2.pdf")
		os.Exit(1)
	}
	pdf1Path, pdf2Path := flag.Arg(0), flag.Arg(1)

	tempDir, err := os.MkdirTemp("", "cardsheet-debug-*")
	if err != nil {
		fmt.Printf("Error creating temp dir: %v\n", err)
		os.Exit(1)
	}
	if !*keep {
		defer os.RemoveAll(tempDir)
	}

	fileHash1, err := utils.HashFile(pdf1Path)
	if err != nil {
		fmt.Printf("Error hashing first PDF: %v\n", err)
		os.Exit(1)
	}
	fileHash2, err := utils.HashFile(pdf2Path)
	if err != nil {
		fmt.Printf("Error hashing second PDF: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("File hashes match: %v\n", fileHash1 == fileHash2)

	doc1, err := fitz.New(pdf1Path)
	if err != nil {
		fmt.Printf("Error opening first PDF: %v\n", err)
		os.Exit(1)
	}
	defer doc1.Close()

	doc2, err := fitz.New(pdf2Path)
	if err != nil {
		fmt.Printf("Error opening second PDF: %v\n", err)
		os.Exit(1)
	}
	defer doc2.Close()

	fmt.Printf("\nSheets: %d vs %d\n", doc1.NumPage(), doc2.NumPage())

	pages := min(doc1.NumPage(), doc2.NumPage())
	identical := doc1.NumPage() == doc2.NumPage()

	for pageNum := 0; pageNum < pages; pageNum++ {
		side := "front"
		if pageNum == 1 {
			side = "back"
		}
		fmt.Printf("\nSheet %d (%s):\n", pageNum+1, side)

		bounds1, _ := doc1.Bound(pageNum)
		bounds2, _ := doc2.Bound(pageNum)
		fmt.Printf("  size: %.2f x %.2f mm vs %.2f x %.2f mm\n",
			utils.PointsToMM(float64(bounds1.Dx())), utils.PointsToMM(float64(bounds1.Dy())),
			utils.PointsToMM(float64(bounds2.Dx())), utils.PointsToMM(float64(bounds2.Dy())))

		img1, err := doc1.ImageDPI(pageNum, *dpi)
		if err != nil {
			fmt.Printf("  error rendering first PDF: %v\n", err)
			identical = false
			continue
		}
		img2, err := doc2.ImageDPI(pageNum, *dpi)
		if err != nil {
			fmt.Printf("  error rendering second PDF: %v\n", err)
			identical = false
			continue
		}

		hash1, _ := utils.GenerateImageHash(img1)
		hash2, _ := utils.GenerateImageHash(img2)
		fmt.Printf("  render hashes match: %v\n", hash1 == hash2)
		if hash1 != hash2 {
			identical = false
		}

		if *keep {
			for n, img := range []image.Image{img1, img2} {
				path := filepath.Join(tempDir, fmt.Sprintf("sheet%d_%s_pdf%d.png", pageNum+1, side, n+1))
				if err := savePNG(path, img); err != nil {
					fmt.Printf("  error saving render: %v\n", err)
				}
			}
		}
	}

	if *keep {
		fmt.Printf("\nRenders saved in: %s\n", tempDir)
	}
	if !identical {
		os.Exit(2)
	}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
