// Package main provides a CLI command that summarizes long text with a language model.
// Usage: ai-notebook-summarize [-mode mind_map|knowledge_graph] [-input FILE] [-output text|json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ai-notebook/internal/config"
	"ai-notebook/internal/infra/outline"
	"ai-notebook/internal/observability/logging"
	"ai-notebook/internal/observability/tracing"
	"ai-notebook/internal/prompt"
	completionUC "ai-notebook/internal/usecase/completion"
	"ai-notebook/internal/usecase/summarize"
	"ai-notebook/internal/utils/text"
)

// SummaryOutput represents the JSON output format.
type SummaryOutput struct {
	Mode       string        `json:"mode"`
	Provider   string        `json:"provider"`
	Chunks     int           `json:"chunks"`
	Summary    string        `json:"summary"`
	Outline    *outline.Node `json:"outline,omitempty"`
	DurationMS int64         `json:"duration_ms"`
}

type options struct {
	mode         string
	provider     string
	input        string
	outputFormat string
	metricsAddr  string
	envFile      string
	final        bool
}

func main() {
	var opts options
	flag.StringVar(&opts.mode, "mode", prompt.ModeMindMap, "Extraction mode: mind_map or knowledge_graph (or a mode from PROMPTS_PATH)")
	flag.StringVar(&opts.provider, "provider", "", "Provider override: deepseek, openai or claude (default: SUMMARIZER_PROVIDER)")
	flag.StringVar(&opts.input, "input", "-", "Input file, or - for stdin")
	flag.StringVar(&opts.outputFormat, "output", "text", "Output format: text or json")
	flag.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (default: METRICS_ADDR)")
	flag.StringVar(&opts.envFile, "env", ".env", "Optional .env file to load")
	flag.BoolVar(&opts.final, "final", false, "Run the final-summary pass on the merged result")
	flag.Parse()

	if opts.outputFormat != "text" && opts.outputFormat != "json" {
		fmt.Fprintf(os.Stderr, "Error: Invalid output format '%s' (must be 'text' or 'json')\n", opts.outputFormat)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: ai-notebook-summarize [-mode mind_map|knowledge_graph] [-input FILE] [-output text|json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  ai-notebook-summarize -input lecture.txt")
		fmt.Fprintln(os.Stderr, "  cat notes.md | ai-notebook-summarize -mode knowledge_graph -output json")
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	loaded, err := config.LoadDotEnv(opts.envFile)
	if err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	if opts.provider != "" {
		if err := os.Setenv("SUMMARIZER_PROVIDER", opts.provider); err != nil {
			return fmt.Errorf("set provider: %w", err)
		}
	}

	logger := initLogger()
	if len(loaded) > 0 {
		logger.Debug("environment files loaded", slog.Any("files", loaded))
	}

	cfg, err := config.LoadSummarizerConfig()
	if err != nil {
		return fmt.Errorf("failed to load summarizer configuration: %w", err)
	}

	prompts, err := prompt.LoadFile(cfg.PromptsPath)
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	if _, err := prompts.ExtractionFor(opts.mode); err != nil {
		return err
	}

	logger = logging.WithFields(logger, map[string]interface{}{
		"mode":     opts.mode,
		"provider": string(cfg.Provider),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	if cfg.Observability.EnableTracing {
		shutdown, err := tracing.Init(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Error("tracer shutdown failed", slog.Any("error", err))
			}
		}()
	}

	metricsAddr := opts.metricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.Observability.MetricsAddr
	}
	if metricsAddr != "" {
		startMetricsServer(ctx, logger, metricsAddr)
	}

	client, err := createCompletionClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create completion client: %w", err)
	}

	store, closeStore, err := createCache(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	defer closeStore()

	input, err := readInput(opts.input)
	if err != nil {
		return err
	}

	active := cfg.Active()
	chunks := text.Split(input, active.MaxChunkSize)

	svc := completionUC.NewService(client, store, cfg.Provider)
	pipeline := summarize.NewPipeline(svc, prompts, active, summarize.NewLimiter(cfg.MaxConcurrent))

	logger.Info("summarizing input",
		slog.String("model", active.Model),
		slog.Int("input_length", text.CountRunes(input)),
		slog.Int("chunks", len(chunks)))

	start := time.Now()
	result, err := pipeline.Summarize(ctx, chunks, opts.mode, progressPrinter(os.Stderr))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	if opts.final {
		result, err = pipeline.FinalSummary(ctx, result)
		if err != nil {
			return fmt.Errorf("final summary failed: %w", err)
		}
	}

	if opts.outputFormat == "json" {
		tree := outline.Parse(result)
		logger.Debug("outline built",
			slog.Int("nodes", tree.Size()),
			slog.Int("depth", tree.Depth()))

		return outputJSON(os.Stdout, SummaryOutput{
			Mode:       opts.mode,
			Provider:   string(svc.Provider()),
			Chunks:     len(chunks),
			Summary:    result,
			Outline:    tree,
			DurationMS: time.Since(start).Milliseconds(),
		})
	}

	fmt.Println(result)
	return nil
}

// readInput reads the whole input file, or stdin for "-".
func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("input is empty")
	}
	return string(data), nil
}

// progressPrinter renders pipeline progress on a single terminal line.
func progressPrinter(w io.Writer) func(float64) {
	return func(fraction float64) {
		_, _ = fmt.Fprintf(w, "\rprogress: %3.0f%%", fraction*100)
	}
}

// outputJSON prints the result in JSON format.
func outputJSON(w io.Writer, out SummaryOutput) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// initLogger initializes the logger on stderr so stdout carries only results.
// LOG_FORMAT=text switches from JSON to text output.
func initLogger() *slog.Logger {
	level := logging.ParseLevel(os.Getenv("LOG_LEVEL"))
	logger := logging.NewJSONLogger(os.Stderr, level)
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
		logger = logging.NewTextLogger(os.Stderr, level)
	}
	slog.SetDefault(logger)
	return logger
}
