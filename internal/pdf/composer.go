package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"seehuhn.de/go/geom/matrix"

	"github.com/kpauljoseph/cardsheet/internal/layout"
	"github.com/kpauljoseph/cardsheet/pkg/logger"
	"github.com/kpauljoseph/cardsheet/pkg/models"
	"github.com/kpauljoseph/cardsheet/pkg/utils"
)

var ErrCompose = errors.New("failed to compose sheets")

// CardXObject is the resource name of the card form on every sheet.
const CardXObject = "Card"

// quarter turn counter-clockwise
var rotate90 = matrix.Matrix{0, 1, -1, 0, 0, 0}

// Composer writes the imposed sheets. The front and back pages of the source
// are each turned into a form XObject that the new sheet draws once per
// placement.
type Composer struct {
	logger *logger.Logger
}

func NewComposer(logger *logger.Logger) *Composer {
	return &Composer{logger: logger}
}

func (c *Composer) ComposeFile(ctx context.Context, src *CardSource, plan *layout.Layout, outputPath string) error {
	var buf bytes.Buffer
	if err := c.Compose(ctx, src, plan, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output PDF: %w", err)
	}
	c.logger.Debug("Wrote %d bytes to %s", buf.Len(), outputPath)
	return nil
}

// sheetSide is one source page and the copies drawn from it.
type sheetSide struct {
	pageNr     int
	box        PageBox
	content    []byte
	placements []models.Placement
}

func (c *Composer) Compose(ctx context.Context, src *CardSource, plan *layout.Layout, w io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCompose, r)
		}
	}()

	sides := []sheetSide{
		{pageNr: FrontPage, box: src.Front, placements: plan.Front},
		{pageNr: BackPage, box: src.Back, placements: plan.Back},
	}

	// Streams copied by ExtractPages cannot be decoded again, so the content
	// comes from the validated source.
	for i := range sides {
		content, err := src.pageContent(sides[i].pageNr)
		if err != nil {
			return err
		}
		sides[i].content = content
	}

	out, err := pdfcpu.ExtractPages(src.ctx, []int{FrontPage, BackPage}, false)
	if err != nil {
		return fmt.Errorf("failed to extract front and back pages: %w", err)
	}
	if err := out.EnsurePageCount(); err != nil {
		return err
	}

	for _, side := range sides {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := c.composeSheet(out, side, plan); err != nil {
			return fmt.Errorf("failed to compose sheet %d: %w", side.pageNr, err)
		}
	}

	// canonicalize needs a plain xref table
	conf := *out.Configuration
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	out.Configuration = &conf

	var buf bytes.Buffer
	if err := pdfapi.WriteContext(out, &buf); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	pdfBytes, err := canonicalize(buf.Bytes())
	if err != nil {
		return err
	}

	if _, err := w.Write(pdfBytes); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// composeSheet rewrites page side.pageNr of ctx in place into a sheet of the
// plan's paper size carrying the card copies.
func (c *Composer) composeSheet(ctx *model.Context, side sheetSide, plan *layout.Layout) error {
	pageDict, _, inh, err := ctx.PageDict(side.pageNr, false)
	if err != nil {
		return err
	}
	if pageDict == nil {
		return fmt.Errorf("page %d not found", side.pageNr)
	}

	var resources types.Object = types.Dict{}
	if r := pageDict["Resources"]; r != nil {
		resources = r
	} else if inh != nil && inh.Resources != nil {
		resources = inh.Resources
	}

	bleedPt := utils.MMToPoints(plan.Candidate.BleedMM)
	formRef, formHeight, err := c.cardForm(ctx, side.box, resources, side.content, bleedPt)
	if err != nil {
		return err
	}

	sheet := SheetContent(side.placements, formHeight)
	c.logger.Trace("Sheet %d content:\n%s", side.pageNr, sheet)

	sd, err := ctx.NewStreamDictForBuf(sheet)
	if err != nil {
		return err
	}
	if err := sd.Encode(); err != nil {
		return err
	}
	contentRef, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return err
	}

	sheetBox := types.RectForWidthAndHeight(0, 0,
		utils.MMToPoints(plan.Paper.WidthMM), utils.MMToPoints(plan.Paper.HeightMM))
	pageDict["MediaBox"] = sheetBox.Array()
	pageDict["CropBox"] = sheetBox.Array()
	for _, key := range []string{"Rotate", "TrimBox", "BleedBox", "ArtBox", "Annots"} {
		pageDict.Delete(key)
	}
	pageDict["Resources"] = types.Dict{
		"XObject": types.Dict{CardXObject: *formRef},
	}
	pageDict["Contents"] = *contentRef

	c.logger.Debug("Composed sheet %d with %d copies", side.pageNr, len(side.placements))
	return nil
}

// cardForm wraps a page's content in a form XObject clipped to the card after
// the bleed crop. It returns the form and its height in points.
func (c *Composer) cardForm(ctx *model.Context, box PageBox, resources types.Object, content []byte, bleedPt float64) (*types.IndirectRef, float64, error) {
	w, h := box.Size()
	w -= 2 * bleedPt
	h -= 2 * bleedPt
	if w <= 0 || h <= 0 {
		return nil, 0, fmt.Errorf("bleed crop of %.2fpt leaves no card", bleedPt)
	}

	m := box.contentMatrix().Mul(matrix.Translate(-bleedPt, -bleedPt))

	var buf bytes.Buffer
	buf.WriteString("q ")
	writeMatrix(&buf, m)
	buf.WriteString(" cm\n")
	buf.Write(content)
	buf.WriteString("\nQ\n")

	sd, err := ctx.NewStreamDictForBuf(buf.Bytes())
	if err != nil {
		return nil, 0, err
	}
	sd.Dict["Type"] = types.Name("XObject")
	sd.Dict["Subtype"] = types.Name("Form")
	sd.Dict["BBox"] = types.RectForWidthAndHeight(0, 0, w, h).Array()
	sd.Dict["Resources"] = resources
	if err := sd.Encode(); err != nil {
		return nil, 0, err
	}

	ref, err := ctx.IndRefForNewObject(*sd)
	if err != nil {
		return nil, 0, err
	}
	return ref, h, nil
}

// SheetContent draws the card form once per placement. cardHeightPt is the
// form's height, needed to shift rotated copies back into their cell.
func SheetContent(placements []models.Placement, cardHeightPt float64) []byte {
	var buf bytes.Buffer
	for _, p := range placements {
		buf.WriteString("q ")
		writeMatrix(&buf, PlacementMatrix(p, cardHeightPt))
		buf.WriteString(" cm /" + CardXObject + " Do Q\n")
	}
	return buf.Bytes()
}

// PlacementMatrix maps card form space onto the sheet. A rotated copy is
// turned a quarter counter-clockwise so its lower-left corner lands on the
// placement origin.
func PlacementMatrix(p models.Placement, cardHeightPt float64) matrix.Matrix {
	x := utils.MMToPoints(p.XMM)
	y := utils.MMToPoints(p.YMM)
	if p.Rotated {
		return rotate90.Mul(matrix.Translate(x+cardHeightPt, y))
	}
	return matrix.Translate(x, y)
}

func writeMatrix(buf *bytes.Buffer, m matrix.Matrix) {
	for i, v := range m {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(formatNumber(v))
	}
}

func formatNumber(v float64) string {
	v = math.Round(v*1e5) / 1e5
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
