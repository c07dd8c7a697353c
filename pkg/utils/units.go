package utils

const (
	Inch2MM    = 25.4
	Inch2Point = 72.0
	MM2Point   = Inch2Point / Inch2MM
	Point2MM   = Inch2MM / Inch2Point
)

func MMToPoints(mm float64) float64 {
	return mm * MM2Point
}

func PointsToMM(pt float64) float64 {
	return pt * Point2MM
}
