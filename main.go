package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Vikram2406/Hackathon-DQ/pkg/apply"
	"github.com/Vikram2406/Hackathon-DQ/pkg/config"
	"github.com/Vikram2406/Hackathon-DQ/pkg/dataset"
	"github.com/Vikram2406/Hackathon-DQ/pkg/llm"
	"github.com/Vikram2406/Hackathon-DQ/pkg/logging"
	"github.com/Vikram2406/Hackathon-DQ/pkg/models"
	"github.com/Vikram2406/Hackathon-DQ/pkg/pipeline"
)

// Version is set at build time via ldflags
var Version = "dev"

type detectOutput struct {
	Issues  []models.Issue     `json:"issues"`
	Summary models.ScanSummary `json:"summary"`
}

type applyOutput struct {
	Applied  int             `json:"applied"`
	Skipped  int             `json:"skipped"`
	Changes  apply.ChangeMap `json:"changes"`
	Location string          `json:"location,omitempty"`
}

func main() {
	mode := flag.String("mode", "detect", "detect, preview, export or commit")
	outDir := flag.String("out", ".", "directory for exported artifacts")
	selected := flag.String("select", "", "comma-separated issue IDs to apply (default: all)")
	issuesPath := flag.String("issues", "", "issues JSON from a previous detect run (apply modes)")
	units := flag.String("units", "", "unit preferences as col=unit pairs, comma-separated")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: %s [flags] <input.csv>", os.Args[0])
	}
	inputPath := flag.Arg(0)

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting pipeline",
		zap.String("version", cfg.Version),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("mode", *mode),
		zap.String("input", inputPath))

	f, err := os.Open(inputPath)
	if err != nil {
		logger.Fatal("open input", zap.Error(err))
	}
	ds, err := dataset.ReadCSV(f)
	f.Close()
	if err != nil {
		logger.Fatal("parse input csv", zap.Error(err))
	}

	client, err := llm.NewGateway(llm.GatewayConfig{
		Provider:         cfg.LLM.Provider,
		Model:            cfg.LLM.Model,
		APIKey:           cfg.LLM.ResolveAPIKey(),
		RequestTimeout:   cfg.LLM.RequestTimeout,
		CascadeThreshold: cfg.LLM.MaxQuotaExhaustedBeforeCascadeCap,
	}, logger)
	if err != nil {
		logger.Fatal("build llm gateway", zap.Error(err))
	}

	sink, err := dataset.NewFileSink(*outDir)
	if err != nil {
		logger.Fatal("create output sink", zap.Error(err))
	}

	p := pipeline.New(cfg, client, sink, logger)
	ctx := context.Background()

	switch *mode {
	case "detect":
		runDetect(ctx, p, ds, logger)
	case "preview", "export", "commit":
		runApply(ctx, p, ds, inputPath, *mode, *selected, *issuesPath, *units, logger)
	default:
		logger.Fatal("unknown mode", zap.String("mode", *mode))
	}
}

func runDetect(ctx context.Context, p *pipeline.Pipeline, ds *dataset.Dataset, logger *zap.Logger) {
	result, err := p.DetectIssues(ctx, ds)
	if err != nil {
		logger.Fatal("detection failed", zap.Error(err))
	}
	writeJSON(detectOutput{Issues: result.Issues, Summary: result.Summary}, logger)
}

func runApply(ctx context.Context, p *pipeline.Pipeline, ds *dataset.Dataset,
	inputPath, mode, selected, issuesPath, units string, logger *zap.Logger) {

	var issues []models.Issue
	if issuesPath != "" {
		data, err := os.ReadFile(issuesPath)
		if err != nil {
			logger.Fatal("read issues file", zap.Error(err))
		}
		var detected detectOutput
		if err := json.Unmarshal(data, &detected); err != nil {
			logger.Fatal("parse issues file", zap.Error(err))
		}
		issues = detected.Issues
	} else {
		result, err := p.DetectIssues(ctx, ds)
		if err != nil {
			logger.Fatal("detection failed", zap.Error(err))
		}
		issues = result.Issues
	}

	applyMode := apply.ModePreview
	switch mode {
	case "export":
		applyMode = apply.ModeExport
	case "commit":
		applyMode = apply.ModeCommit
	}

	result, err := p.ApplyFixes(ctx, ds, issues, apply.Options{
		SelectedIDs:     splitList(selected),
		UnitPreferences: parseUnitPrefs(units),
		Mode:            applyMode,
		SourceKey:       inputPath,
	})
	if err != nil {
		logger.Fatal("apply failed", zap.Error(err))
	}

	if applyMode == apply.ModePreview {
		os.Stdout.Write(result.CSV)
		return
	}
	writeJSON(applyOutput{
		Applied:  result.Applied,
		Skipped:  result.Skipped,
		Changes:  result.Changes,
		Location: result.Location,
	}, logger)
}

func writeJSON(v any, logger *zap.Logger) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Fatal("encode output", zap.Error(err))
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseUnitPrefs reads "height=cm,weight=kg" into a map.
func parseUnitPrefs(s string) map[string]string {
	prefs := make(map[string]string)
	for _, part := range splitList(s) {
		col, unit, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		prefs[strings.TrimSpace(col)] = strings.TrimSpace(unit)
	}
	if len(prefs) == 0 {
		return nil
	}
	return prefs
}
