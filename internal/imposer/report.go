package imposer

import (
	"time"

	"github.com/kpauljoseph/cardsheet/internal/layout"
	"github.com/kpauljoseph/cardsheet/pkg/logger"
	"github.com/kpauljoseph/cardsheet/pkg/utils"
)

type Report struct {
	InputPath    string
	OutputPath   string
	Plan         *layout.Layout
	PreviewPaths []string
}

func (r *Report) Print(log *logger.Logger) {
	plan := r.Plan
	c := plan.Candidate

	rotation := "no"
	if c.Rotated {
		rotation = "yes (90°)"
	}

	log.Info("Paper: %s (%.2f x %.2f pt)", plan.Paper.Name,
		utils.MMToPoints(plan.Paper.WidthMM), utils.MMToPoints(plan.Paper.HeightMM))
	log.Info("Minimum margins: %.2f mm left/right, %.2f mm top/bottom", plan.Margins.XMM, plan.Margins.YMM)
	log.Info("Chosen layout:")
	log.Info("  - capacity : %d cards per sheet", c.Total)
	log.Info("  - trim     : %.2f mm", c.TrimMM)
	if c.BleedMM > 0 {
		log.Info("  - bleed    : %.2f mm cropped on every side", c.BleedMM)
	}
	log.Info("  - rotation : %s", rotation)
	log.Info("  - grid     : %d columns x %d rows", c.Columns, c.Rows)
	log.Info("  - origin   : %.2f, %.2f mm", plan.Origin.XMM, plan.Origin.YMM)
	log.Info("Final card size (before rotation): %.2f x %.2f mm",
		plan.Card.WidthMM-2*c.BleedMM, plan.Card.HeightMM-2*c.BleedMM)
	log.Info("Back side offset: x %.2f mm, y %.2f mm", layout.BackOffsetXMM, layout.BackOffsetYMM)
	for _, p := range r.PreviewPaths {
		log.Info("Preview: %s", p)
	}
	log.Info("Done. Saved as: %s", r.OutputPath)
}

type BatchReport struct {
	StartTime time.Time
	EndTime   time.Time
	Reports   []*Report
	Failed    []string
}

func (b *BatchReport) TotalCards() int {
	total := 0
	for _, r := range b.Reports {
		total += r.Plan.Candidate.Total
	}
	return total
}

func (b *BatchReport) Print(log *logger.Logger) {
	log.Info("Imposition complete:")
	log.Info("- PDFs imposed: %d", len(b.Reports))
	log.Info("- PDFs failed: %d", len(b.Failed))
	for _, name := range b.Failed {
		log.Info("    %s", name)
	}
	log.Info("- Cards per sheet pair, all files: %d", b.TotalCards())
	if !b.EndTime.IsZero() {
		log.Info("- Took %s", b.EndTime.Sub(b.StartTime).Round(time.Millisecond))
	}
}
