package imposer_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/cardsheet/internal/imposer"
	"github.com/kpauljoseph/cardsheet/internal/layout"
	"github.com/kpauljoseph/cardsheet/internal/pdf"
	"github.com/kpauljoseph/cardsheet/internal/testutil"
	"github.com/kpauljoseph/cardsheet/pkg/logger"
	"github.com/kpauljoseph/cardsheet/pkg/models"
)

func imposerTestLogger() *logger.Logger {
	return logger.New(
		logger.WithOutput(GinkgoWriter),
		logger.WithPrefix("[imposer-test] "),
		logger.WithFlags(0),
		logger.WithLevel(logger.LevelDebug),
	)
}

var _ = Describe("Imposer", func() {
	var (
		tempDir    string
		testLogger *logger.Logger
		opts       imposer.Options
		ctx        context.Context
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "cardsheet-imposer-*")
		Expect(err).NotTo(HaveOccurred())

		testLogger = imposerTestLogger()
		ctx = context.Background()
		opts = imposer.Options{
			Paper:   models.PaperA4,
			Margins: models.Margins{XMM: 5, YMM: 5},
			Layout:  layout.DefaultOptions(),
		}
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	writeCard := func(rel string, pages []testutil.FixturePage) string {
		path := filepath.Join(tempDir, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(testutil.WritePDF(path, pages)).To(Succeed())
		return path
	}

	Context("imposing a single file", func() {
		It("should derive the output name and report the layout", func() {
			input := writeCard("visit.pdf", testutil.BusinessCard())

			imp, err := imposer.New(opts, testLogger)
			Expect(err).NotTo(HaveOccurred())

			report, err := imp.ImposeFile(ctx, input, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(report.OutputPath).To(Equal(filepath.Join(tempDir, "visit_PRINT.pdf")))
			Expect(report.OutputPath).To(BeAnExistingFile())
			Expect(report.Plan.Candidate.Total).To(Equal(10))
			Expect(report.PreviewPaths).To(BeEmpty())

			var buf bytes.Buffer
			report.Print(logger.New(logger.WithOutput(&buf), logger.WithFlags(0)))
			Expect(buf.String()).To(ContainSubstring("capacity : 10 cards per sheet"))
			Expect(buf.String()).To(ContainSubstring("grid     : 2 columns x 5 rows"))
			Expect(buf.String()).To(ContainSubstring("Back side offset: x -2.50 mm, y 0.00 mm"))
		})

		It("should write to an explicit output path", func() {
			input := writeCard("visit.pdf", testutil.BusinessCard())
			output := filepath.Join(tempDir, "out.pdf")

			imp, err := imposer.New(opts, testLogger)
			Expect(err).NotTo(HaveOccurred())

			report, err := imp.ImposeFile(ctx, input, output)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.OutputPath).To(Equal(output))

			src, err := pdf.OpenCardSource(output, testLogger)
			Expect(err).NotTo(HaveOccurred())
			Expect(src.PageCount()).To(Equal(2))
			Expect(src.Card().WidthMM).To(BeNumerically("~", 210, 0.01))
			Expect(src.Card().HeightMM).To(BeNumerically("~", 297, 0.01))
		})

		It("should refuse to overwrite the input", func() {
			input := writeCard("visit.pdf", testutil.BusinessCard())
			imp, err := imposer.New(opts, testLogger)
			Expect(err).NotTo(HaveOccurred())

			_, err = imp.ImposeFile(ctx, input, input)
			Expect(err).To(MatchError(imposer.ErrSameFile))
		})

		It("should fail for single page input", func() {
			input := writeCard("front-only.pdf", testutil.BusinessCard()[:1])
			imp, err := imposer.New(opts, testLogger)
			Expect(err).NotTo(HaveOccurred())

			_, err = imp.ImposeFile(ctx, input, "")
			Expect(err).To(MatchError(pdf.ErrTooFewPages))
			Expect(filepath.Join(tempDir, "front-only_PRINT.pdf")).NotTo(BeAnExistingFile())
		})

		It("should fail when the card never fits", func() {
			input := writeCard("poster.pdf", []testutil.FixturePage{
				testutil.CardPage(300, 400, [3]float64{1, 0, 0}),
				testutil.CardPage(300, 400, [3]float64{0, 1, 0}),
			})
			imp, err := imposer.New(opts, testLogger)
			Expect(err).NotTo(HaveOccurred())

			_, err = imp.ImposeFile(ctx, input, "")
			Expect(err).To(MatchError(layout.ErrCardTooLarge))
		})
	})

	Context("imposing a directory", func() {
		BeforeEach(func() {
			writeCard("a.pdf", testutil.BusinessCard())
			writeCard("team/b.pdf", testutil.BusinessCard())
			writeCard("broken.pdf", testutil.BusinessCard()[:1])
		})

		It("should impose every card and count failures", func() {
			imp, err := imposer.New(opts, testLogger)
			Expect(err).NotTo(HaveOccurred())

			batch, err := imp.ImposeDir(ctx, tempDir, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(batch.Reports).To(HaveLen(2))
			Expect(batch.Failed).To(Equal([]string{"broken.pdf"}))
			Expect(batch.TotalCards()).To(Equal(20))

			Expect(filepath.Join(tempDir, "a_PRINT.pdf")).To(BeAnExistingFile())
			Expect(filepath.Join(tempDir, "team", "b_PRINT.pdf")).To(BeAnExistingFile())
		})

		It("should mirror the directory layout into an output directory", func() {
			outDir := filepath.Join(tempDir, "..", filepath.Base(tempDir)+"-out")
			defer os.RemoveAll(outDir)

			imp, err := imposer.New(opts, testLogger)
			Expect(err).NotTo(HaveOccurred())

			batch, err := imp.ImposeDir(ctx, tempDir, outDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(batch.Reports).To(HaveLen(2))
			Expect(filepath.Join(outDir, "a_PRINT.pdf")).To(BeAnExistingFile())
			Expect(filepath.Join(outDir, "team", "b_PRINT.pdf")).To(BeAnExistingFile())

			var buf bytes.Buffer
			batch.Print(logger.New(logger.WithOutput(&buf), logger.WithFlags(0)))
			Expect(buf.String()).To(ContainSubstring("PDFs imposed: 2"))
			Expect(buf.String()).To(ContainSubstring("PDFs failed: 1"))
		})

		It("should not pick up its own output on a second run", func() {
			imp, err := imposer.New(opts, testLogger)
			Expect(err).NotTo(HaveOccurred())

			_, err = imp.ImposeDir(ctx, tempDir, "")
			Expect(err).NotTo(HaveOccurred())

			batch, err := imp.ImposeDir(ctx, tempDir, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(batch.Reports).To(HaveLen(2))
		})

		It("should stop when cancelled", func() {
			imp, err := imposer.New(opts, testLogger)
			Expect(err).NotTo(HaveOccurred())

			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err = imp.ImposeDir(cancelled, tempDir, "")
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
