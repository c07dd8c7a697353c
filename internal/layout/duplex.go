package layout

import "github.com/kpauljoseph/cardsheet/pkg/models"

// Duplex registration correction for the back sheet, measured on the
// reference printer. Positive Y moves the back side up relative to the front.
const (
	BackOffsetXMM = -2.5
	BackOffsetYMM = 0.0
)

// ApplyDuplexOffset returns a copy of placements with back-side entries
// shifted by (dx, dy). Front-side entries are returned unchanged.
func ApplyDuplexOffset(placements []models.Placement, dx, dy float64) []models.Placement {
	shifted := make([]models.Placement, len(placements))
	copy(shifted, placements)
	for i := range shifted {
		if shifted[i].Side != models.SideBack {
			continue
		}
		shifted[i].XMM += dx
		shifted[i].YMM += dy
	}
	return shifted
}
