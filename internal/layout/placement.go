package layout

import "github.com/kpauljoseph/cardsheet/pkg/models"

// Placements lays out one copy per grid cell, row 0 at the bottom. Each copy
// is inset by half the trim so the cutting allowance surrounds it evenly.
func Placements(c GridCandidate, o Origin, side models.Side) []models.Placement {
	placements := make([]models.Placement, 0, c.Total)
	inset := c.TrimMM / 2
	for row := 0; row < c.Rows; row++ {
		for col := 0; col < c.Columns; col++ {
			placements = append(placements, models.Placement{
				Side:    side,
				Row:     row,
				Column:  col,
				XMM:     o.XMM + float64(col)*c.CellWidthMM() + inset,
				YMM:     o.YMM + float64(row)*c.CellHeightMM() + inset,
				Rotated: c.Rotated,
			})
		}
	}
	return placements
}
