package pdf

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"seehuhn.de/go/geom/matrix"

	"github.com/kpauljoseph/cardsheet/pkg/logger"
	"github.com/kpauljoseph/cardsheet/pkg/models"
	"github.com/kpauljoseph/cardsheet/pkg/utils"
)

const (
	FrontPage = 1
	BackPage  = 2
)

var (
	ErrTooFewPages = errors.New("input PDF needs at least 2 pages (front and back)")
	ErrNoPageBox   = errors.New("page has no usable MediaBox")
)

// PageBox is a page's MediaBox together with its /Rotate value.
type PageBox struct {
	MediaBox *types.Rectangle
	Rotate   int
}

// Size returns the page size as displayed, in points.
func (b PageBox) Size() (w, h float64) {
	w, h = b.MediaBox.Width(), b.MediaBox.Height()
	if b.Rotate == 90 || b.Rotate == 270 {
		return h, w
	}
	return w, h
}

func (b PageBox) Dimensions() models.CardDimensions {
	w, h := b.Size()
	return models.CardDimensions{
		WidthMM:  roundMM(utils.PointsToMM(w)),
		HeightMM: roundMM(utils.PointsToMM(h)),
	}
}

// contentMatrix maps the page's content into [0,w]x[0,h] as displayed,
// folding in the MediaBox origin and the page rotation.
func (b PageBox) contentMatrix() matrix.Matrix {
	m := matrix.Translate(-b.MediaBox.LL.X, -b.MediaBox.LL.Y)
	w, h := b.MediaBox.Width(), b.MediaBox.Height()
	switch b.Rotate {
	case 90:
		m = m.Mul(matrix.Matrix{0, -1, 1, 0, 0, w})
	case 180:
		m = m.Mul(matrix.Matrix{-1, 0, 0, -1, w, h})
	case 270:
		m = m.Mul(matrix.Matrix{0, 1, -1, 0, h, 0})
	}
	return m
}

// CardSource is a validated input PDF whose first two pages are the front
// and back of the card.
type CardSource struct {
	Path  string
	Front PageBox
	Back  PageBox

	ctx *model.Context
}

// Card returns the card size taken from the front page.
func (s *CardSource) Card() models.CardDimensions {
	return s.Front.Dimensions()
}

func (s *CardSource) PageCount() int {
	return s.ctx.PageCount
}

// pageContent returns the decoded content of a page, nil for a blank page.
func (s *CardSource) pageContent(pageNr int) ([]byte, error) {
	d, _, _, err := s.ctx.PageDict(pageNr, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", pageNr, err)
	}
	content, err := s.ctx.PageContent(d, pageNr)
	if errors.Is(err, model.ErrNoContent) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d content: %w", pageNr, err)
	}
	return content, nil
}

func OpenCardSource(path string, log *logger.Logger) (*CardSource, error) {
	log.Debug("Opening card PDF: %s", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	src, err := ReadCardSource(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	src.Path = path

	log.Debug("Read %d pages from %s", src.PageCount(), path)
	log.Trace("Front MediaBox %v rotate %d, back MediaBox %v rotate %d",
		src.Front.MediaBox, src.Front.Rotate, src.Back.MediaBox, src.Back.Rotate)
	return src, nil
}

func ReadCardSource(rs io.ReadSeeker) (*CardSource, error) {
	conf := model.NewDefaultConfiguration()
	ctx, err := pdfapi.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	if ctx.PageCount < 2 {
		return nil, fmt.Errorf("%w, got %d", ErrTooFewPages, ctx.PageCount)
	}

	front, err := readPageBox(ctx, FrontPage)
	if err != nil {
		return nil, err
	}
	back, err := readPageBox(ctx, BackPage)
	if err != nil {
		return nil, err
	}

	return &CardSource{
		Front: front,
		Back:  back,
		ctx:   ctx,
	}, nil
}

func readPageBox(ctx *model.Context, pageNr int) (PageBox, error) {
	_, _, inh, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return PageBox{}, fmt.Errorf("failed to read page %d: %w", pageNr, err)
	}
	if inh == nil || inh.MediaBox == nil || inh.MediaBox.Width() <= 0 || inh.MediaBox.Height() <= 0 {
		return PageBox{}, fmt.Errorf("page %d: %w", pageNr, ErrNoPageBox)
	}
	return PageBox{
		MediaBox: inh.MediaBox,
		Rotate:   normalizeRotation(inh.Rotate),
	}, nil
}

func normalizeRotation(rot int) int {
	rot %= 360
	if rot < 0 {
		rot += 360
	}
	return rot
}

// roundMM drops the noise left by the pt to mm conversion, so a card drawn
// at exactly 85mm fits exactly like 85mm.
func roundMM(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
