// Package layout computes step-and-repeat grids for a single card on a sheet.
// All measurements are in millimetres; the origin is the sheet's lower-left
// corner, matching PDF user space.
package layout

import (
	"github.com/kpauljoseph/cardsheet/pkg/models"
)

type Layout struct {
	Paper     models.PaperSize
	Margins   models.Margins
	Card      models.CardDimensions
	Area      Area
	Candidate GridCandidate
	Origin    Origin
	Front     []models.Placement
	Back      []models.Placement
}

// Plan fits the card on the paper and returns front and back placements, the
// back ones already corrected by the duplex offset.
func Plan(card models.CardDimensions, paper models.PaperSize, margins models.Margins, opts Options) (*Layout, error) {
	area, err := PrintableArea(paper, margins)
	if err != nil {
		return nil, err
	}

	best, err := Fit(card, area, opts)
	if err != nil {
		return nil, err
	}

	origin := Center(best, area)

	return &Layout{
		Paper:     paper,
		Margins:   margins,
		Card:      card,
		Area:      area,
		Candidate: best,
		Origin:    origin,
		Front:     Placements(best, origin, models.SideFront),
		Back:      ApplyDuplexOffset(Placements(best, origin, models.SideBack), BackOffsetXMM, BackOffsetYMM),
	}, nil
}
