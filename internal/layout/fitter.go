package layout

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kpauljoseph/cardsheet/pkg/models"
)

var (
	ErrCardTooLarge   = errors.New("card too large for sheet")
	ErrMarginTooLarge = errors.New("margins leave no printable area")
	ErrInvalidMargin  = errors.New("invalid margin")
	ErrInvalidTrim    = errors.New("invalid trim allowance")
)

var (
	DefaultTrimCandidatesMM  = []float64{0, 2}
	DefaultBleedCandidatesMM = []float64{0, 2}
)

type Options struct {
	// TrimCandidatesMM is the spacing reserved around each copy for cutting.
	TrimCandidatesMM []float64
	// BleedCandidatesMM is cut off every side of the source card before tiling.
	BleedCandidatesMM []float64
	AllowRotation     bool
}

func DefaultOptions() Options {
	return Options{
		TrimCandidatesMM:  append([]float64(nil), DefaultTrimCandidatesMM...),
		BleedCandidatesMM: append([]float64(nil), DefaultBleedCandidatesMM...),
		AllowRotation:     true,
	}
}

// Area is the printable part of a sheet, in millimetres from the sheet's
// lower-left corner.
type Area struct {
	XMM      float64
	YMM      float64
	WidthMM  float64
	HeightMM float64
}

func PrintableArea(paper models.PaperSize, margins models.Margins) (Area, error) {
	if margins.XMM < 0 || margins.YMM < 0 {
		return Area{}, fmt.Errorf("%w: %.2f x %.2f mm", ErrInvalidMargin, margins.XMM, margins.YMM)
	}
	area := Area{
		XMM:      margins.XMM,
		YMM:      margins.YMM,
		WidthMM:  paper.WidthMM - 2*margins.XMM,
		HeightMM: paper.HeightMM - 2*margins.YMM,
	}
	if area.WidthMM <= 0 || area.HeightMM <= 0 {
		return Area{}, fmt.Errorf("%w: %.2f x %.2f mm on %s", ErrMarginTooLarge, margins.XMM, margins.YMM, paper.Name)
	}
	return area, nil
}

// GridCandidate is one trim/bleed/orientation scenario and the grid it yields.
// CardWidthMM and CardHeightMM are the card size in grid orientation after
// the bleed crop.
type GridCandidate struct {
	TrimMM       float64
	BleedMM      float64
	Rotated      bool
	Columns      int
	Rows         int
	Total        int
	CardWidthMM  float64
	CardHeightMM float64
}

func (c GridCandidate) CellWidthMM() float64  { return c.CardWidthMM + c.TrimMM }
func (c GridCandidate) CellHeightMM() float64 { return c.CardHeightMM + c.TrimMM }

func (c GridCandidate) GridWidthMM() float64 {
	return float64(c.Columns) * c.CellWidthMM()
}

func (c GridCandidate) GridHeightMM() float64 {
	return float64(c.Rows) * c.CellHeightMM()
}

// Fit returns the candidate holding the most copies. Ties go to the smaller
// trim, then the smaller bleed crop, then the unrotated orientation.
func Fit(card models.CardDimensions, area Area, opts Options) (GridCandidate, error) {
	candidates, err := Candidates(card, area, opts)
	if err != nil {
		return GridCandidate{}, err
	}
	return candidates[0], nil
}

// Candidates returns every scenario that fits at least one copy, best first.
func Candidates(card models.CardDimensions, area Area, opts Options) ([]GridCandidate, error) {
	if card.WidthMM <= 0 || card.HeightMM <= 0 {
		return nil, fmt.Errorf("invalid card size %.2f x %.2f mm", card.WidthMM, card.HeightMM)
	}

	trims := opts.TrimCandidatesMM
	if len(trims) == 0 {
		trims = []float64{0}
	}
	bleeds := opts.BleedCandidatesMM
	if len(bleeds) == 0 {
		bleeds = []float64{0}
	}
	orientations := []bool{false}
	if opts.AllowRotation {
		orientations = append(orientations, true)
	}

	var candidates []GridCandidate
	for _, trim := range trims {
		if trim < 0 {
			return nil, fmt.Errorf("%w: trim %.2f mm", ErrInvalidTrim, trim)
		}
		for _, bleed := range bleeds {
			if bleed < 0 {
				return nil, fmt.Errorf("%w: bleed %.2f mm", ErrInvalidTrim, bleed)
			}
			w := card.WidthMM - 2*bleed
			h := card.HeightMM - 2*bleed
			if w <= 0 || h <= 0 {
				continue
			}
			for _, rotated := range orientations {
				c := GridCandidate{
					TrimMM:       trim,
					BleedMM:      bleed,
					Rotated:      rotated,
					CardWidthMM:  w,
					CardHeightMM: h,
				}
				if rotated {
					c.CardWidthMM, c.CardHeightMM = h, w
				}
				c.Columns = fitCount(area.WidthMM, c.CellWidthMM())
				c.Rows = fitCount(area.HeightMM, c.CellHeightMM())
				if c.Columns < 1 || c.Rows < 1 {
					continue
				}
				c.Total = c.Columns * c.Rows
				candidates = append(candidates, c)
			}
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %.2f x %.2f mm card in %.2f x %.2f mm printable area",
			ErrCardTooLarge, card.WidthMM, card.HeightMM, area.WidthMM, area.HeightMM)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.TrimMM != b.TrimMM {
			return a.TrimMM < b.TrimMM
		}
		if a.BleedMM != b.BleedMM {
			return a.BleedMM < b.BleedMM
		}
		return !a.Rotated && b.Rotated
	})

	return candidates, nil
}

// fitCount is floor(available / cell), corrected so that count*cell never
// exceeds available after rounding.
func fitCount(available, cell float64) int {
	if cell <= 0 || available <= 0 {
		return 0
	}
	n := int(math.Floor(available / cell))
	for n > 0 && float64(n)*cell > available {
		n--
	}
	return n
}
