// Package preview rasterizes imposed sheets so they can be proofed before
// printing.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/kpauljoseph/cardsheet/pkg/logger"
	"github.com/kpauljoseph/cardsheet/pkg/models"
)

const DefaultDPI = 150.0

type Renderer struct {
	outputDir string
	dpi       float64
	logger    *logger.Logger
}

func NewRenderer(outputDir string, dpi float64, logger *logger.Logger) (*Renderer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Renderer{
		outputDir: outputDir,
		dpi:       dpi,
		logger:    logger,
	}, nil
}

// RenderSheets writes <name>_front.png and <name>_back.png for the first two
// pages of an imposed PDF and returns their paths.
func (r *Renderer) RenderSheets(ctx context.Context, pdfPath string) ([]string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	baseName := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	sides := []models.Side{models.SideFront, models.SideBack}
	if doc.NumPage() < len(sides) {
		return nil, fmt.Errorf("expected %d sheets, found %d", len(sides), doc.NumPage())
	}

	var paths []string
	//Page numbers are zero indexed in the fitz package.
	for pageNum, side := range sides {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(pageNum, r.dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s sheet: %w", side, err)
		}

		path := filepath.Join(r.outputDir, fmt.Sprintf("%s_%s.png", baseName, side))
		if err := saveImage(img, path); err != nil {
			return nil, fmt.Errorf("failed to save %s preview: %w", side, err)
		}
		r.logger.Debug("Rendered %s sheet preview: %s", side, path)
		paths = append(paths, path)
	}

	return paths, nil
}

func saveImage(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
