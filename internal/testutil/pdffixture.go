// Package testutil builds small card PDFs for tests.
package testutil

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"os"

	"github.com/kpauljoseph/cardsheet/pkg/utils"
)

// FixturePage describes one page of a fixture PDF. Each page is filled with
// its color and carries a darker frame so renders show the card outline.
type FixturePage struct {
	WidthPt  float64
	HeightPt float64
	Rotate   int
	RGB      [3]float64
}

func CardPage(widthMM, heightMM float64, rgb [3]float64) FixturePage {
	return FixturePage{
		WidthPt:  utils.MMToPoints(widthMM),
		HeightPt: utils.MMToPoints(heightMM),
		RGB:      rgb,
	}
}

// BusinessCard returns front and back pages of an 85x55mm card.
func BusinessCard() []FixturePage {
	return []FixturePage{
		CardPage(85, 55, [3]float64{0.9, 0.2, 0.2}),
		CardPage(85, 55, [3]float64{0.2, 0.2, 0.9}),
	}
}

// Structure selects how BuildStructuredPDF writes the page objects.
type Structure struct {
	// Compress writes every content stream with /FlateDecode.
	Compress bool
	// SplitContents gives every page a /Contents array of two streams.
	SplitContents bool
	// Inherit moves /MediaBox and /Resources onto the page tree node. The
	// MediaBox is taken from the first page.
	Inherit bool
	// IndirectResources stores the graphics states as separate objects.
	IndirectResources bool
}

const fixtureResources = "<< /ExtGState << /GS0 << /Type /ExtGState /CA 1 /ca 1 >> >> >>"

// BuildPDF returns a minimal, valid PDF 1.4 file with one page per entry.
func BuildPDF(pages []FixturePage) []byte {
	return BuildStructuredPDF(pages, Structure{})
}

// BuildStructuredPDF is BuildPDF with the page objects laid out as s asks.
func BuildStructuredPDF(pages []FixturePage, s Structure) []byte {
	streams := 1
	if s.SplitContents {
		streams = 2
	}
	// 1: catalog, 2: page tree, then a page and its content streams per page
	pageObj := func(i int) int { return 3 + i*(1+streams) }

	resources := fixtureResources
	if s.IndirectResources {
		gs := pageObj(len(pages))
		resources = fmt.Sprintf("<< /ExtGState << /GS0 %d 0 R /GS1 %d 0 R >> >>", gs, gs+1)
	}

	objects := []string{"<< /Type /Catalog /Pages 2 0 R >>"}
	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", pageObj(i))
	}
	tree := fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d", kids, len(pages))
	if s.Inherit && len(pages) > 0 {
		tree += fmt.Sprintf(" /MediaBox [0 0 %.3f %.3f] /Resources %s", pages[0].WidthPt, pages[0].HeightPt, resources)
	}
	objects = append(objects, tree+" >>")

	for i, p := range pages {
		fill := fmt.Sprintf("/GS0 gs %.3f %.3f %.3f rg 0 0 %.3f %.3f re f\n",
			p.RGB[0], p.RGB[1], p.RGB[2], p.WidthPt, p.HeightPt)
		frame := fmt.Sprintf("0 0 0 RG 2 w 1 1 %.3f %.3f re S\n", p.WidthPt-2, p.HeightPt-2)
		parts := []string{fill + frame}
		contents := fmt.Sprintf("%d 0 R", pageObj(i)+1)
		if s.SplitContents {
			parts = []string{fill, frame}
			contents = fmt.Sprintf("[%d 0 R %d 0 R]", pageObj(i)+1, pageObj(i)+2)
		}

		page := "<< /Type /Page /Parent 2 0 R"
		if !s.Inherit {
			page += fmt.Sprintf(" /MediaBox [0 0 %.3f %.3f] /Resources %s", p.WidthPt, p.HeightPt, resources)
		}
		page += " /Contents " + contents
		if p.Rotate != 0 {
			page += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		objects = append(objects, page+" >>")

		for _, part := range parts {
			objects = append(objects, contentStream(part, s.Compress))
		}
	}
	if s.IndirectResources {
		objects = append(objects,
			"<< /Type /ExtGState /CA 1 /ca 1 >>",
			"<< /Type /ExtGState /CA 0.5 /ca 0.5 >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func contentStream(content string, compress bool) string {
	if !compress {
		return fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content)
	}
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	zw.Write([]byte(content))
	zw.Close()
	return fmt.Sprintf("<< /Length %d /Filter /FlateDecode >>\nstream\n%s\nendstream", z.Len(), z.String())
}

func WritePDF(path string, pages []FixturePage) error {
	return os.WriteFile(path, BuildPDF(pages), 0644)
}
