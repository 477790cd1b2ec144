package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/raido/internal"
	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/lifecycle"
	"github.com/starford/raido/internal/mcpserver"
	"github.com/starford/raido/internal/models"
	pkgconfig "github.com/starford/raido/pkg/config"
)

// errPartialFailure marks a batch that finished but left per-note
// errors in its report.
var errPartialFailure = errors.New("completed with errors")

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err == nil {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// quietCore builds the application core for one-shot commands, logging
// to stderr so stdout stays clean for JSON output.
func quietCore(cmd *cli.Command) (*internal.Core, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)
	return internal.BuildCore(cfg, logger, nil)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func reportOutcome(report *models.BatchReport) error {
	if err := printJSON(report); err != nil {
		return err
	}
	if report.HasErrors() {
		return errPartialFailure
	}
	return nil
}

func runTriage(ctx context.Context, cmd *cli.Command) error {
	core, err := quietCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	if cmd.Bool("weekly") {
		recs, err := core.Generator.GenerateWeeklyRecommendations(cmd.String("dir"), core.Config.Vault.Recursive)
		if err != nil {
			return err
		}
		for _, r := range recs {
			fmt.Println(r)
		}
		return nil
	}

	seq, err := core.Coordinator.ScanCandidates(cmd.String("dir"))
	if err != nil {
		return err
	}
	candidates := []models.Candidate{}
	for c := range seq {
		candidates = append(candidates, c)
	}
	return printJSON(candidates)
}

func runPromote(ctx context.Context, cmd *cli.Command) error {
	core, err := quietCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	minQuality := lifecycle.UseConfiguredThreshold
	if cmd.IsSet("min-quality") {
		minQuality = cmd.Float("min-quality")
	}
	execute := cmd.Bool("execute")

	if path := cmd.String("path"); path != "" {
		res, err := core.Coordinator.PromoteNote(path, minQuality, !execute)
		if err != nil {
			return err
		}
		return printJSON(res)
	}

	report, err := core.Coordinator.AutoPromoteReadyNotes(ctx, minQuality, !execute)
	if err != nil {
		return err
	}
	return reportOutcome(report)
}

func runRepair(ctx context.Context, cmd *cli.Command) error {
	core, err := quietCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	report, err := core.Coordinator.RepairOrphanedNotes(ctx, !cmd.Bool("execute"))
	if err != nil {
		return err
	}
	return reportOutcome(report)
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.Run(ctx, internal.WithConfig(cfg))
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	core, err := quietCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	return mcpserver.New(core.Store, core.Coordinator).ServeStdio()
}

// exitCode maps an error to the process exit code: 2 for configuration
// and backup failures, 1 for everything else including partial batch
// failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, apperr.ErrConfiguration), errors.Is(err, apperr.ErrBackupFailure):
		return 2
	default:
		return 1
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "raido",
		Usage: "Note lifecycle manager for Markdown vaults: triage, quality-gated promotion, and orphan repair",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "triage",
				Usage: "Scan the vault and print promotion candidates",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Usage: "Vault subdirectory to scan"},
					&cli.BoolFlag{Name: "weekly", Usage: "Print grouped weekly recommendations instead"},
				},
				Action: runTriage,
			},
			{
				Name:  "promote",
				Usage: "Promote eligible notes (preview unless --execute)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Usage: "Promote a single note instead of the whole vault"},
					&cli.FloatFlag{Name: "min-quality", Usage: "Override the configured quality threshold"},
					&cli.BoolFlag{Name: "execute", Usage: "Actually move files"},
				},
				Action: runPromote,
			},
			{
				Name:  "repair",
				Usage: "Route orphaned notes through the promotion path (preview unless --execute)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "execute", Usage: "Actually move files"},
				},
				Action: runRepair,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server with the vault watcher",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errPartialFailure) {
			slog.Error("application error", slog.String("error", err.Error()))
		}
		os.Exit(exitCode(err))
	}
}
