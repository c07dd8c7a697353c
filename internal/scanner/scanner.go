package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kpauljoseph/cardsheet/pkg/logger"
	"github.com/kpauljoseph/cardsheet/pkg/utils"
)

var ErrNoPDFs = errors.New("no PDF files found")

type PDFFile struct {
	AbsolutePath string
	RelativePath string
}

type DirectoryScanner struct {
	logger     *logger.Logger
	skipSuffix string
}

// New returns a scanner that skips files ending in skipSuffix (before the
// extension), so earlier imposition output is not picked up as input.
func New(logger *logger.Logger, skipSuffix string) *DirectoryScanner {
	return &DirectoryScanner{
		logger:     logger,
		skipSuffix: skipSuffix,
	}
}

func (s *DirectoryScanner) FindPDFs(ctx context.Context, dir string) ([]PDFFile, error) {
	var pdfs []PDFFile

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	err = filepath.Walk(absDir, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if info.IsDir() {
			s.logger.Trace("Scanning directory: %s", path)
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}

		if utils.HasOutputSuffix(path, s.skipSuffix) {
			s.logger.Debug("Skipping imposed file: %s", path)
			return nil
		}

		relPath, err := filepath.Rel(absDir, path)
		if err != nil {
			relPath = path
		}
		s.logger.Debug("Found PDF (%d): %s", len(pdfs)+1, relPath)

		pdfs = append(pdfs, PDFFile{
			AbsolutePath: path,
			RelativePath: relPath,
		})
		return nil
	})

	if err != nil {
		return nil, err
	}

	if len(pdfs) == 0 {
		return nil, fmt.Errorf("%w in %s or its subdirectories", ErrNoPDFs, dir)
	}

	sort.Slice(pdfs, func(i, j int) bool {
		return pdfs[i].RelativePath < pdfs[j].RelativePath
	})

	return pdfs, nil
}
