package layout

// Origin is the lower-left corner of the grid on the sheet together with the
// space left over inside the printable area.
type Origin struct {
	XMM         float64
	YMM         float64
	LeftoverXMM float64
	LeftoverYMM float64
}

// Center splits the unused printable space evenly on both sides of the grid.
func Center(c GridCandidate, area Area) Origin {
	leftoverX := area.WidthMM - c.GridWidthMM()
	leftoverY := area.HeightMM - c.GridHeightMM()
	if leftoverX < 0 {
		leftoverX = 0
	}
	if leftoverY < 0 {
		leftoverY = 0
	}
	return Origin{
		XMM:         area.XMM + leftoverX/2,
		YMM:         area.YMM + leftoverY/2,
		LeftoverXMM: leftoverX,
		LeftoverYMM: leftoverY,
	}
}

// Gaps returns the distance between the grid and each edge of the printable
// area: left, right, bottom, top.
func Gaps(c GridCandidate, area Area, o Origin) (left, right, bottom, top float64) {
	left = o.XMM - area.XMM
	right = area.XMM + area.WidthMM - (o.XMM + c.GridWidthMM())
	bottom = o.YMM - area.YMM
	top = area.YMM + area.HeightMM - (o.YMM + c.GridHeightMM())
	return left, right, bottom, top
}
