package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kpauljoseph/cardsheet/internal/config"
	"github.com/kpauljoseph/cardsheet/internal/imposer"
	"github.com/kpauljoseph/cardsheet/pkg/logger"
	"github.com/kpauljoseph/cardsheet/pkg/version"
)

const defaultConfigPath = "cardsheet.yaml"

var errBatchFailures = errors.New("some PDFs could not be imposed")

var errUsage = errors.New("usage: cardsheet <input.pdf|dir> [output.pdf|dir] [--paper A4|A3|SRA4|SRA3] [--margin-mm N] [--margin-x-mm N] [--margin-y-mm N]")

type cliArgs struct {
	input       string
	output      string
	configPath  string
	configSet   bool
	paper       string
	marginMM    float64
	marginXMM   float64
	marginYMM   float64
	bleedMM     float64
	noRotate    bool
	previewDir  string
	verbose     bool
	debug       bool
	showVersion bool
	set         map[string]bool
}

// parseArgs accepts flags before, between and after the positional
// arguments.
func parseArgs(args []string, stderr io.Writer) (*cliArgs, error) {
	a := &cliArgs{set: map[string]bool{}}

	fs := flag.NewFlagSet("cardsheet", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&a.configPath, "config", defaultConfigPath, "path to YAML config file")
	fs.StringVar(&a.paper, "paper", config.DefaultPaper, "paper size: A4, A3, SRA4 or SRA3")
	fs.StringVar(&a.paper, "p", config.DefaultPaper, "shorthand for --paper")
	fs.Float64Var(&a.marginMM, "margin-mm", 0, "minimum printer margin on every side (mm), overrides --margin-x-mm and --margin-y-mm")
	fs.Float64Var(&a.marginXMM, "margin-x-mm", config.DefaultMarginMM, "minimum printer margin left and right (mm)")
	fs.Float64Var(&a.marginYMM, "margin-y-mm", config.DefaultMarginMM, "minimum printer margin top and bottom (mm)")
	fs.Float64Var(&a.bleedMM, "bleed-mm", 0, "bleed cropped off every side of the card when that fits more copies (mm), 0 disables cropping")
	fs.BoolVar(&a.noRotate, "no-rotate", false, "never rotate the card")
	fs.StringVar(&a.previewDir, "preview-dir", "", "render PNG previews of the sheets into this directory")
	fs.BoolVar(&a.verbose, "verbose", false, "enable verbose logging")
	fs.BoolVar(&a.debug, "debug", false, "enable debug mode with trace logging")
	fs.BoolVar(&a.showVersion, "version", false, "print version information and exit")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if name == "p" {
			name = "paper"
		}
		a.set[name] = true
	})
	a.configSet = a.set["config"]

	if a.showVersion {
		return a, nil
	}

	switch len(positional) {
	case 1:
		a.input = positional[0]
	case 2:
		a.input, a.output = positional[0], positional[1]
	default:
		return nil, errUsage
	}
	return a, nil
}

// apply overrides config values with the flags given on the command line.
func (a *cliArgs) apply(cfg *config.Config) error {
	if a.set["paper"] {
		cfg.Paper = a.paper
	}
	if a.set["margin-x-mm"] {
		cfg.MarginXMM = a.marginXMM
	}
	if a.set["margin-y-mm"] {
		cfg.MarginYMM = a.marginYMM
	}
	if a.set["margin-mm"] {
		cfg.MarginXMM = a.marginMM
		cfg.MarginYMM = a.marginMM
	}
	if a.set["bleed-mm"] {
		cfg.BleedCandidatesMM = []float64{0}
		if a.bleedMM > 0 {
			cfg.BleedCandidatesMM = append(cfg.BleedCandidatesMM, a.bleedMM)
		}
	}
	if a.noRotate {
		cfg.AllowRotation = false
	}
	return cfg.Validate()
}

func loadConfig(a *cliArgs) (*config.Config, error) {
	if a.configSet {
		return config.Load(a.configPath)
	}
	return config.LoadOptional(a.configPath)
}

func main() {
	args, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if args.showVersion {
		fmt.Print(version.GetDetailedVersionInfo())
		return
	}

	log := logger.New(
		logger.WithPrefix("[cardsheet] "),
		logger.WithFlags(0),
	)
	log.SetVerbose(args.verbose)

	if args.debug {
		log.SetVerbose(true)
		log.SetLevel(logger.LevelTrace)
	}

	log.Debug("%s", version.GetVersionInfo())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, args, log); err != nil {
		log.Fatal("%v", err)
	}
}

// run imposes a single file, or every PDF below a directory.
func run(ctx context.Context, args *cliArgs, log *logger.Logger) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if err := args.apply(cfg); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}

	paper, err := cfg.PaperSize()
	if err != nil {
		return err
	}

	imp, err := imposer.New(imposer.Options{
		Paper:        paper,
		Margins:      cfg.Margins(),
		Layout:       cfg.LayoutOptions(),
		OutputSuffix: cfg.OutputSuffix,
		PreviewDir:   args.previewDir,
		PreviewDPI:   cfg.PreviewDPI,
	}, log)
	if err != nil {
		return fmt.Errorf("error initializing imposer: %w", err)
	}

	info, err := os.Stat(args.input)
	if err != nil {
		return fmt.Errorf("failed to read input %s: %w", args.input, err)
	}

	if info.IsDir() {
		log.Info("Scanning directory: %s", args.input)
		batch, err := imp.ImposeDir(ctx, args.input, args.output)
		if err != nil {
			return fmt.Errorf("error imposing directory: %w", err)
		}
		for _, report := range batch.Reports {
			log.Debug("%s -> %s (%d per sheet)", report.InputPath, report.OutputPath, report.Plan.Candidate.Total)
		}
		batch.Print(log)
		if len(batch.Failed) > 0 {
			return fmt.Errorf("%w: %d", errBatchFailures, len(batch.Failed))
		}
		return nil
	}

	report, err := imp.ImposeFile(ctx, args.input, args.output)
	if err != nil {
		return fmt.Errorf("error imposing %s: %w", args.input, err)
	}
	report.Print(log)
	return nil
}
