package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/cardsheet/internal/config"
	"github.com/kpauljoseph/cardsheet/internal/layout"
	"github.com/kpauljoseph/cardsheet/pkg/models"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "cardsheet-config-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	writeConfig := func(content string) string {
		path := filepath.Join(dir, "config.yaml")
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	It("should provide the documented defaults", func() {
		cfg := config.Default()
		Expect(cfg.Paper).To(Equal("A4"))
		Expect(cfg.Margins()).To(Equal(models.Margins{XMM: 5, YMM: 5}))
		Expect(cfg.TrimCandidatesMM).To(Equal([]float64{0, 2}))
		Expect(cfg.BleedCandidatesMM).To(Equal([]float64{0, 2}))
		Expect(cfg.AllowRotation).To(BeTrue())
		Expect(cfg.OutputSuffix).To(Equal("_PRINT"))
	})

	It("should keep defaults for keys missing from the file", func() {
		cfg, err := config.Load(writeConfig("paper: sra3\nmargin_y_mm: 8\n"))
		Expect(err).NotTo(HaveOccurred())

		paper, err := cfg.PaperSize()
		Expect(err).NotTo(HaveOccurred())
		Expect(paper).To(Equal(models.PaperSRA3))
		Expect(cfg.Margins()).To(Equal(models.Margins{XMM: 5, YMM: 8}))
		Expect(cfg.AllowRotation).To(BeTrue())
	})

	It("should read every layout option", func() {
		cfg, err := config.Load(writeConfig(`
paper: A3
margin_x_mm: 3
margin_y_mm: 4
trim_candidates_mm: [0, 1, 3]
bleed_candidates_mm: [0, 2]
allow_rotation: false
output_suffix: -sheet
preview_dpi: 72
`))
		Expect(err).NotTo(HaveOccurred())

		Expect(cfg.LayoutOptions()).To(Equal(layout.Options{
			TrimCandidatesMM:  []float64{0, 1, 3},
			BleedCandidatesMM: []float64{0, 2},
			AllowRotation:     false,
		}))
		Expect(cfg.OutputSuffix).To(Equal("-sheet"))
		Expect(cfg.PreviewDPI).To(Equal(72.0))
	})

	It("should reject unknown paper sizes", func() {
		_, err := config.Load(writeConfig("paper: B5\n"))
		Expect(err).To(MatchError(models.ErrUnknownPaper))
	})

	It("should reject negative values", func() {
		_, err := config.Load(writeConfig("margin_x_mm: -1\n"))
		Expect(err).To(MatchError(layout.ErrInvalidMargin))

		_, err = config.Load(writeConfig("trim_candidates_mm: [0, -2]\n"))
		Expect(err).To(MatchError(layout.ErrInvalidTrim))
	})

	It("should fail on malformed YAML", func() {
		_, err := config.Load(writeConfig("paper: [A4\n"))
		Expect(err).To(HaveOccurred())
	})

	It("should fall back to defaults only when the optional file is missing", func() {
		cfg, err := config.LoadOptional(filepath.Join(dir, "missing.yaml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.Default()))

		_, err = config.Load(filepath.Join(dir, "missing.yaml"))
		Expect(err).To(HaveOccurred())
	})
})
