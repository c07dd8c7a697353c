// Package imposer runs the full pipeline for one card PDF or a directory of
// them: read the card, plan the grid, compose the sheets and optionally
// render previews.
package imposer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kpauljoseph/cardsheet/internal/layout"
	"github.com/kpauljoseph/cardsheet/internal/pdf"
	"github.com/kpauljoseph/cardsheet/internal/preview"
	"github.com/kpauljoseph/cardsheet/internal/scanner"
	"github.com/kpauljoseph/cardsheet/pkg/logger"
	"github.com/kpauljoseph/cardsheet/pkg/models"
	"github.com/kpauljoseph/cardsheet/pkg/utils"
)

var ErrSameFile = errors.New("output would overwrite the input")

type Options struct {
	Paper        models.PaperSize
	Margins      models.Margins
	Layout       layout.Options
	OutputSuffix string
	PreviewDir   string
	PreviewDPI   float64
}

type Imposer struct {
	opts     Options
	composer pdf.SheetComposer
	renderer *preview.Renderer
	logger   *logger.Logger
}

func New(opts Options, logger *logger.Logger) (*Imposer, error) {
	if opts.OutputSuffix == "" {
		opts.OutputSuffix = utils.DefaultOutputSuffix
	}

	imp := &Imposer{
		opts:     opts,
		composer: pdf.NewComposer(logger),
		logger:   logger,
	}

	if opts.PreviewDir != "" {
		renderer, err := preview.NewRenderer(opts.PreviewDir, opts.PreviewDPI, logger)
		if err != nil {
			return nil, err
		}
		imp.renderer = renderer
	}

	return imp, nil
}

// ImposeFile imposes one card PDF. An empty outputPath derives the name from
// the input.
func (i *Imposer) ImposeFile(ctx context.Context, inputPath, outputPath string) (*Report, error) {
	if outputPath == "" {
		outputPath = utils.DeriveOutputPath(inputPath, i.opts.OutputSuffix)
	}
	if sameFile(inputPath, outputPath) {
		return nil, fmt.Errorf("%w: %s", ErrSameFile, outputPath)
	}

	src, err := pdf.OpenCardSource(inputPath, i.logger)
	if err != nil {
		return nil, err
	}

	card := src.Card()
	i.logger.Debug("Card size from front page: %.2f x %.2f mm", card.WidthMM, card.HeightMM)

	plan, err := layout.Plan(card, i.opts.Paper, i.opts.Margins, i.opts.Layout)
	if err != nil {
		return nil, err
	}
	i.logger.Trace("Front placements: %+v", plan.Front)
	i.logger.Trace("Back placements: %+v", plan.Back)

	if err := i.composer.ComposeFile(ctx, src, plan, outputPath); err != nil {
		return nil, err
	}

	report := &Report{
		InputPath:  inputPath,
		OutputPath: outputPath,
		Plan:       plan,
	}

	if i.renderer != nil {
		paths, err := i.renderer.RenderSheets(ctx, outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to render previews: %w", err)
		}
		report.PreviewPaths = paths
	}

	return report, nil
}

// ImposeDir imposes every PDF below dir. Outputs go next to their inputs, or
// mirror the directory layout under outputDir when it is set. A failing file
// is logged and counted; only scanning errors and cancellation abort.
func (i *Imposer) ImposeDir(ctx context.Context, dir, outputDir string) (*BatchReport, error) {
	batch := &BatchReport{StartTime: time.Now()}

	pdfs, err := scanner.New(i.logger, i.opts.OutputSuffix).FindPDFs(ctx, dir)
	if err != nil {
		return nil, err
	}
	i.logger.Info("Found %d PDFs to impose", len(pdfs))

	for _, file := range pdfs {
		if err := ctx.Err(); err != nil {
			return batch, err
		}

		outputPath := ""
		if outputDir != "" {
			outputPath = filepath.Join(outputDir, utils.DeriveOutputPath(file.RelativePath, i.opts.OutputSuffix))
			if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
				return batch, fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		report, err := i.ImposeFile(ctx, file.AbsolutePath, outputPath)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return batch, err
			}
			i.logger.Warn("Error imposing %s: %v", file.RelativePath, err)
			batch.Failed = append(batch.Failed, file.RelativePath)
			continue
		}
		batch.Reports = append(batch.Reports, report)
	}

	batch.EndTime = time.Now()
	return batch, nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
