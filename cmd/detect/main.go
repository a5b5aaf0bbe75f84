package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/gabriel-vasile/mimetype"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/azure/ai-content-detector/internal/analysis"
	"github.com/azure/ai-content-detector/internal/backend"
	"github.com/azure/ai-content-detector/internal/config"
	"github.com/azure/ai-content-detector/internal/media"
	"github.com/azure/ai-content-detector/internal/models"
	"github.com/azure/ai-content-detector/internal/render"
)

const usage = `Usage:
  detect -text "some text"
  detect -file photo.jpg [-kind image]
  detect -url https://example.com/clip.mp4 -kind video
Flags:
`

type options struct {
	text    string
	file    string
	url     string
	kind    string
	view    string
	json    bool
	explain bool
	verbose bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	logrus.SetOutput(stderr)
	logrus.SetLevel(logrus.WarnLevel)
	if opts.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := godotenv.Load(); err == nil {
		logrus.Debug("Loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	if err := detect(ctx, cfg, opts, stdout); err != nil {
		color.New(color.FgHiRed).Fprintf(stderr, "Error: %s\n", analysis.Message(err))
		logrus.Debugf("Detection failed: %v", err)
		return 1
	}
	return 0
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.text, "text", "", "text to analyze")
	fs.StringVar(&opts.file, "file", "", "path of an image or video to analyze")
	fs.StringVar(&opts.url, "url", "", "direct link to an image or video")
	fs.StringVar(&opts.kind, "kind", "", "media kind: image or video (inferred for -file)")
	fs.StringVar(&opts.view, "view", "", "print a presentation view as JSON: chat, card or gauges")
	fs.BoolVar(&opts.json, "json", false, "print the raw result as JSON")
	fs.BoolVar(&opts.explain, "explain", false, "ask for an explanation of an image verdict")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	inputs := 0
	for _, s := range []string{opts.text, opts.file, opts.url} {
		if s != "" {
			inputs++
		}
	}
	if inputs != 1 {
		fmt.Fprintln(stderr, "exactly one of -text, -file or -url is required")
		fs.Usage()
		return nil, errors.New("invalid input flags")
	}

	switch opts.view {
	case "", "chat", "card", "gauges":
	default:
		fmt.Fprintf(stderr, "unknown view %q\n", opts.view)
		return nil, errors.New("invalid view")
	}

	if opts.kind != "" && opts.kind != string(models.KindImage) && opts.kind != string(models.KindVideo) {
		fmt.Fprintf(stderr, "unknown kind %q\n", opts.kind)
		return nil, errors.New("invalid kind")
	}

	return opts, nil
}

func newBackend(cfg *config.Config) (backend.Backend, error) {
	var b backend.Backend
	switch cfg.Backend {
	case config.BackendOracle:
		b = backend.NewOracleBackend(cfg.BackendURL, cfg.BackendAPIKey, cfg.BackendModel, cfg.BackendTimeout)
	case config.BackendOpenAI:
		b = backend.NewOpenAIBackend(cfg.BackendURL, cfg.BackendAPIKey, cfg.BackendModel, cfg.BackendTimeout)
	case config.BackendFake:
		return backend.NewDemo(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return backend.NewBreaker(b, uint32(cfg.BreakerFailures), cfg.BreakerCooldown), nil
}

func detect(ctx context.Context, cfg *config.Config, opts *options, stdout io.Writer) error {
	analysisBackend, err := newBackend(cfg)
	if err != nil {
		return err
	}

	dispatcher := analysis.NewDispatcher(analysisBackend, analysis.WithTimeout(cfg.BackendTimeout))
	normalizer := media.NewNormalizer(
		media.WithMaxBytes(cfg.MaxMediaBytes),
		media.WithFetchTimeout(cfg.FetchTimeout),
	)

	modality, req, err := buildRequest(ctx, normalizer, opts)
	if err != nil {
		return err
	}

	resp, err := dispatcher.Analyze(ctx, modality, req)
	if err != nil {
		return err
	}

	if err := printResult(stdout, opts, resp); err != nil {
		return err
	}

	if !opts.explain {
		return nil
	}
	if modality != models.ModalityImage {
		return analysis.NewError(analysis.KindInvalidRequest, "Explanations are only available for images.")
	}

	determination := models.DeterminationHuman
	if resp.IsAIGenerated {
		determination = models.DeterminationAI
	}
	exp, err := dispatcher.Explain(ctx, models.ExplainRequest{
		PhotoDataURI:    req.PhotoDataURI,
		Determination:   determination,
		ConfidenceScore: resp.ConfidenceScore,
	})
	if err != nil {
		return err
	}

	if opts.json {
		return writeJSON(stdout, exp)
	}
	fmt.Fprintln(stdout)
	render.WriteExplanation(stdout, exp)
	return nil
}

func buildRequest(ctx context.Context, normalizer *media.Normalizer, opts *options) (models.Modality, models.AnalysisRequest, error) {
	if opts.text != "" {
		return models.ModalityText, models.AnalysisRequest{Text: opts.text}, nil
	}

	var (
		encoded models.EncodedMedia
		kind    = models.MediaKind(opts.kind)
		err     error
	)

	if opts.url != "" {
		encoded, err = normalizer.NormalizeURL(ctx, opts.url, kind)
	} else {
		encoded, err = normalizeLocalFile(ctx, normalizer, opts.file, kind)
	}
	if err != nil {
		return "", models.AnalysisRequest{}, err
	}

	if models.KindVideo.Matches(encoded.MimeType) {
		return models.ModalityVideo, models.AnalysisRequest{VideoDataURI: encoded.DataURI()}, nil
	}
	return models.ModalityImage, models.AnalysisRequest{PhotoDataURI: encoded.DataURI()}, nil
}

// normalizeLocalFile reads a file from disk, taking its type from the extension and
// falling back to sniffing the content
func normalizeLocalFile(ctx context.Context, normalizer *media.Normalizer, path string, kind models.MediaKind) (models.EncodedMedia, error) {
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		detected, err := mimetype.DetectFile(path)
		if err != nil {
			return models.EncodedMedia{}, analysis.WrapError(analysis.KindFileReadError, err, "Failed to read the selected file.")
		}
		mimeType = detected.String()
	}

	if kind == "" {
		kind = models.KindImage
		if models.KindVideo.Matches(mimeType) {
			kind = models.KindVideo
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return models.EncodedMedia{}, analysis.WrapError(analysis.KindFileReadError, err, "Failed to read the selected file.")
	}
	defer f.Close()

	return normalizer.NormalizeFile(ctx, models.File{
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Reader:   f,
	}, kind)
}

func printResult(w io.Writer, opts *options, resp *models.AnalysisResponse) error {
	switch {
	case opts.view == "chat":
		return writeJSON(w, render.Chat(resp))
	case opts.view == "card":
		return writeJSON(w, render.NewCard(resp))
	case opts.view == "gauges":
		return writeJSON(w, render.Gauges(resp))
	case opts.json:
		return writeJSON(w, resp)
	}
	return render.WriteText(w, resp)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
