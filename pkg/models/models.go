package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownPaper = errors.New("unknown paper size")

// PageDimensions is a page size in PDF points.
type PageDimensions struct {
	Width  float64
	Height float64
}

type PaperSize struct {
	Name     string
	WidthMM  float64
	HeightMM float64
}

var (
	PaperA4   = PaperSize{Name: "A4", WidthMM: 210, HeightMM: 297}
	PaperA3   = PaperSize{Name: "A3", WidthMM: 297, HeightMM: 420}
	PaperSRA4 = PaperSize{Name: "SRA4", WidthMM: 225, HeightMM: 320}
	PaperSRA3 = PaperSize{Name: "SRA3", WidthMM: 320, HeightMM: 450}
)

var paperSizes = map[string]PaperSize{
	PaperA4.Name:   PaperA4,
	PaperA3.Name:   PaperA3,
	PaperSRA4.Name: PaperSRA4,
	PaperSRA3.Name: PaperSRA3,
}

// PaperNames returns the supported paper names in a stable order.
func PaperNames() []string {
	names := make([]string, 0, len(paperSizes))
	for name := range paperSizes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := paperSizes[names[i]], paperSizes[names[j]]
		if a.WidthMM == b.WidthMM {
			return a.Name < b.Name
		}
		return a.WidthMM < b.WidthMM
	})
	return names
}

// ParsePaperSize looks a paper size up by name, ignoring case.
func ParsePaperSize(name string) (PaperSize, error) {
	paper, ok := paperSizes[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return PaperSize{}, fmt.Errorf("%w %q, choose one of: %s",
			ErrUnknownPaper, name, strings.Join(PaperNames(), ", "))
	}
	return paper, nil
}

// Margins is the minimum unprintable border on each side of the sheet.
type Margins struct {
	XMM float64
	YMM float64
}

type CardDimensions struct {
	WidthMM  float64
	HeightMM float64
}

type Side int

const (
	SideFront Side = iota
	SideBack
)

func (s Side) String() string {
	if s == SideBack {
		return "back"
	}
	return "front"
}

// Placement is the lower-left origin of one card copy on the output sheet,
// in millimetres from the sheet's lower-left corner.
type Placement struct {
	Side    Side
	Row     int
	Column  int
	XMM     float64
	YMM     float64
	Rotated bool
}
