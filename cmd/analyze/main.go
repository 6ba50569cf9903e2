package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/docs-analyzer/internal/common"
	"github.com/joseph-ayodele/docs-analyzer/internal/export"
	"github.com/joseph-ayodele/docs-analyzer/internal/llm"
	"github.com/joseph-ayodele/docs-analyzer/internal/llm/openai"
	"github.com/joseph-ayodele/docs-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/docs-analyzer/internal/prompts"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		lang    = flag.String("lang", "en", "document language code")
		model   = flag.String("model", "", "model label (default from settings)")
		fields  = flag.String("fields", "", "comma-separated metadata fields to extract")
		xlsx    = flag.String("xlsx", "", "write the result to this XLSX file")
		timeout = flag.Duration("timeout", 5*time.Minute, "overall timeout")
	)
	flag.Usage = func() {
		printError("usage: analyze [-lang en] [-model gpt-4-vision] [-fields A,B] [-xlsx out.xlsx] <image>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	document := flag.Arg(0)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("dotenv.load_error", "error", err)
	}
	settings, err := common.LoadSettings()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	store, err := prompts.Load(settings.Prompt.Path, prompts.Options{Strict: settings.Prompt.Strict, Logger: logger})
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	proc := pipeline.NewProcessor(logger, settings, store, openai.NewClient(openai.ConfigFromSettings(settings), logger))
	res, err := proc.Run(ctx, pipeline.Request{
		Language:       *lang,
		DocumentPath:   document,
		MetadataFields: splitFields(*fields),
		Model:          *model,
	})
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Classification:\n%s\n\nExtracted Metadata:\n%s\n\nExtracted Tests:\n%s\n", res.Classification, res.Metadata, res.Tests)
	if len(res.Fields) > 0 {
		fmt.Printf("\nParsed Fields:\n%s\n", llm.FormatFields(res.Fields))
	}
	if res.Normalized != "" {
		fmt.Printf("\nNormalized Metadata:\n%s\n", res.Normalized)
	}

	if *xlsx != "" {
		data, err := export.NewService(logger).ResultXLSX(ctx, filepath.Base(document), res)
		if err != nil {
			printError("Error: export: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsx, data, 0o644); err != nil {
			printError("Error: write %s: %v\n", *xlsx, err)
			os.Exit(1)
		}
		fmt.Printf("\nwrote %s\n", *xlsx)
	}
}

func splitFields(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
