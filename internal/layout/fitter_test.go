package layout_test

import (
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/cardsheet/internal/layout"
	"github.com/kpauljoseph/cardsheet/pkg/models"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

var _ = Describe("Grid Fitter", func() {
	var (
		a4Area layout.Area
		opts   layout.Options
	)

	BeforeEach(func() {
		var err error
		a4Area, err = layout.PrintableArea(models.PaperA4, models.Margins{XMM: 5, YMM: 5})
		Expect(err).NotTo(HaveOccurred())
		opts = layout.DefaultOptions()
	})

	Context("printable area", func() {
		It("should subtract the margins from both sides", func() {
			Expect(a4Area).To(Equal(layout.Area{XMM: 5, YMM: 5, WidthMM: 200, HeightMM: 287}))
		})

		It("should reject margins that consume the sheet", func() {
			_, err := layout.PrintableArea(models.PaperA4, models.Margins{XMM: 105, YMM: 5})
			Expect(err).To(MatchError(layout.ErrMarginTooLarge))
		})

		It("should reject negative margins", func() {
			_, err := layout.PrintableArea(models.PaperA4, models.Margins{XMM: -1, YMM: 5})
			Expect(err).To(MatchError(layout.ErrInvalidMargin))
		})
	})

	Context("choosing the best candidate", func() {
		It("should fit ten standard business cards on A4 without trim or rotation", func() {
			best, err := layout.Fit(models.CardDimensions{WidthMM: 85, HeightMM: 55}, a4Area, opts)
			Expect(err).NotTo(HaveOccurred())

			expected := layout.GridCandidate{
				TrimMM:       0,
				Rotated:      false,
				Columns:      2,
				Rows:         5,
				Total:        10,
				CardWidthMM:  85,
				CardHeightMM: 55,
			}
			Expect(cmp.Diff(expected, best, approx)).To(BeEmpty())
		})

		It("should rotate the card when that fits more copies", func() {
			best, err := layout.Fit(models.CardDimensions{WidthMM: 90, HeightMM: 50}, a4Area, opts)
			Expect(err).NotTo(HaveOccurred())

			Expect(best.Rotated).To(BeTrue())
			Expect(best.TrimMM).To(BeZero())
			Expect(best.Columns).To(Equal(4))
			Expect(best.Rows).To(Equal(3))
			Expect(best.Total).To(Equal(12))
			Expect(best.CardWidthMM).To(Equal(50.0))
			Expect(best.CardHeightMM).To(Equal(90.0))
		})

		It("should not rotate when rotation is disabled", func() {
			opts.AllowRotation = false
			opts.BleedCandidatesMM = []float64{0}
			best, err := layout.Fit(models.CardDimensions{WidthMM: 90, HeightMM: 50}, a4Area, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(best.Rotated).To(BeFalse())
			Expect(best.Total).To(Equal(10))
		})

		It("should crop instead of rotating when rotation is disabled", func() {
			opts.AllowRotation = false
			best, err := layout.Fit(models.CardDimensions{WidthMM: 90, HeightMM: 50}, a4Area, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(best.Rotated).To(BeFalse())
			Expect(best.BleedMM).To(Equal(2.0))
			Expect(best.Columns).To(Equal(2))
			Expect(best.Rows).To(Equal(6))
			Expect(best.Total).To(Equal(12))
		})

		It("should prefer the smaller trim on equal capacity", func() {
			candidates, err := layout.Candidates(models.CardDimensions{WidthMM: 85, HeightMM: 55}, a4Area, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(HaveLen(8))

			Expect(candidates[0].Total).To(Equal(10))
			Expect(candidates[0].TrimMM).To(BeZero())
			Expect(candidates[0].BleedMM).To(BeZero())
			Expect(candidates[1].Total).To(Equal(10))
			Expect(candidates[1].TrimMM).To(BeZero())
			Expect(candidates[1].BleedMM).To(Equal(2.0))
			Expect(candidates[2].Total).To(Equal(10))
			Expect(candidates[2].TrimMM).To(Equal(2.0))
			Expect(candidates[2].BleedMM).To(BeZero())
			Expect(candidates[4].Rotated).To(BeTrue())
			Expect(candidates[4].TrimMM).To(BeZero())
			Expect(candidates[4].Total).To(Equal(9))
		})

		It("should prefer the unrotated orientation on equal capacity", func() {
			candidates, err := layout.Candidates(models.CardDimensions{WidthMM: 60, HeightMM: 60}, a4Area, layout.Options{
				TrimCandidatesMM: []float64{0},
				AllowRotation:    true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(HaveLen(2))
			Expect(candidates[0].Total).To(Equal(candidates[1].Total))
			Expect(candidates[0].Rotated).To(BeFalse())
		})

		It("should crop the default bleed when that fits more copies", func() {
			best, err := layout.Fit(models.CardDimensions{WidthMM: 91, HeightMM: 61}, a4Area, layout.DefaultOptions())
			Expect(err).NotTo(HaveOccurred())

			expected := layout.GridCandidate{
				TrimMM:       0,
				BleedMM:      2,
				Rotated:      false,
				Columns:      2,
				Rows:         5,
				Total:        10,
				CardWidthMM:  87,
				CardHeightMM: 57,
			}
			Expect(cmp.Diff(expected, best, approx)).To(BeEmpty())
		})

		It("should crop bleed when that fits more copies", func() {
			opts.BleedCandidatesMM = []float64{0, 2}
			best, err := layout.Fit(models.CardDimensions{WidthMM: 89, HeightMM: 59}, a4Area, opts)
			Expect(err).NotTo(HaveOccurred())

			Expect(best.BleedMM).To(Equal(2.0))
			Expect(best.TrimMM).To(BeZero())
			Expect(best.Rotated).To(BeFalse())
			Expect(best.Total).To(Equal(10))
			Expect(best.CardWidthMM).To(Equal(85.0))
			Expect(best.CardHeightMM).To(Equal(55.0))
		})

		It("should skip bleed crops that consume the card", func() {
			opts.BleedCandidatesMM = []float64{0, 30}
			candidates, err := layout.Candidates(models.CardDimensions{WidthMM: 85, HeightMM: 55}, a4Area, opts)
			Expect(err).NotTo(HaveOccurred())
			for _, c := range candidates {
				Expect(c.BleedMM).To(BeZero())
			}
		})
	})

	Context("when nothing fits", func() {
		It("should fail with a card too large error", func() {
			_, err := layout.Fit(models.CardDimensions{WidthMM: 300, HeightMM: 100}, a4Area, opts)
			Expect(err).To(MatchError(layout.ErrCardTooLarge))
		})

		It("should reject negative trims", func() {
			opts.TrimCandidatesMM = []float64{0, -1}
			_, err := layout.Fit(models.CardDimensions{WidthMM: 85, HeightMM: 55}, a4Area, opts)
			Expect(err).To(MatchError(layout.ErrInvalidTrim))
		})

		It("should reject empty cards", func() {
			_, err := layout.Fit(models.CardDimensions{}, a4Area, opts)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("grid bounds", func() {
		papers := []models.PaperSize{models.PaperA4, models.PaperA3, models.PaperSRA4, models.PaperSRA3}

		It("should never exceed the printable area", func() {
			for _, paper := range papers {
				for _, margin := range []float64{0, 3, 5, 12.5} {
					area, err := layout.PrintableArea(paper, models.Margins{XMM: margin, YMM: margin})
					Expect(err).NotTo(HaveOccurred())
					for w := 20.0; w <= 160; w += 7.3 {
						for h := 15.0; h <= 120; h += 9.1 {
							card := models.CardDimensions{WidthMM: w, HeightMM: h}
							candidates, err := layout.Candidates(card, area, opts)
							if err != nil {
								Expect(err).To(MatchError(layout.ErrCardTooLarge))
								continue
							}
							for _, c := range candidates {
								Expect(float64(c.Columns) * (c.CardWidthMM + c.TrimMM)).To(BeNumerically("<=", area.WidthMM))
								Expect(float64(c.Rows) * (c.CardHeightMM + c.TrimMM)).To(BeNumerically("<=", area.HeightMM))
								Expect(c.Columns).To(BeNumerically(">=", 1))
								Expect(c.Rows).To(BeNumerically(">=", 1))
								Expect(c.Total).To(Equal(c.Columns * c.Rows))
								Expect(c.Total).To(BeNumerically("<=", candidates[0].Total))
							}
						}
					}
				}
			}
		})
	})
})
