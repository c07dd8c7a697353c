package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/kpauljoseph/cardsheet/internal/layout"
	"github.com/kpauljoseph/cardsheet/internal/pdf"
	"github.com/kpauljoseph/cardsheet/pkg/logger"
	"github.com/kpauljoseph/cardsheet/pkg/models"
	"github.com/kpauljoseph/cardsheet/pkg/utils"
)

func main() {
	pdfPath := flag.String("file", "", "Path to PDF file")
	margin := flag.Float64("margin-mm", 5, "Printer margin on every side (mm)")
	flag.Parse()

	if *pdfPath == "" {
		fmt.Println("Please provide a PDF file path using -file flag")
		os.Exit(1)
	}

	log := logger.New(logger.WithFlags(0))
	if err := report(os.Stdout, *pdfPath, *margin, log); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// report prints the raw page boxes, then the card size the imposer works with
// and the best layout on every paper size.
func report(w io.Writer, path string, margin float64, log *logger.Logger) error {
	fmt.Fprintf(w, "Analyzing PDF: %s\n", path)

	dims, err := api.PageDimsFile(path)
	if err != nil {
		return fmt.Errorf("failed to get page dimensions: %w", err)
	}
	for i, dim := range dims {
		fmt.Fprintf(w, "\nPage %d:\n", i+1)
		fmt.Fprintf(w, "Dimensions (Width x Height): %.3f x %.3f points\n", dim.Width, dim.Height)
		fmt.Fprintf(w, "Dimensions (Width x Height): %.2f x %.2f mm\n", utils.PointsToMM(dim.Width), utils.PointsToMM(dim.Height))
	}

	src, err := pdf.OpenCardSource(path, log)
	if err != nil {
		return err
	}
	card := src.Card()
	fmt.Fprintf(w, "\nCard as imposed: %.2f x %.2f mm (front /Rotate %d)\n", card.WidthMM, card.HeightMM, src.Front.Rotate)

	margins := models.Margins{XMM: margin, YMM: margin}
	fmt.Fprintf(w, "\nBest layout per paper size (margin %.1f mm):\n", margin)
	for _, name := range models.PaperNames() {
		paper, _ := models.ParsePaperSize(name)
		plan, err := layout.Plan(card, paper, margins, layout.DefaultOptions())
		if err != nil {
			fmt.Fprintf(w, "  %-5s: %v\n", name, err)
			continue
		}
		c := plan.Candidate
		fmt.Fprintf(w, "  %-5s: %2d cards (%d x %d), trim %.1f mm, bleed %.1f mm, rotated %v\n",
			name, c.Total, c.Columns, c.Rows, c.TrimMM, c.BleedMM, c.Rotated)
	}
	return nil
}
