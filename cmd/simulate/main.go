package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/RheinXenon/stocksim/internal/decision"
	"github.com/RheinXenon/stocksim/internal/feed"
	"github.com/RheinXenon/stocksim/internal/logger"
	"github.com/RheinXenon/stocksim/internal/sim"
	"github.com/RheinXenon/stocksim/internal/store"
	"github.com/RheinXenon/stocksim/internal/types"
)

func decisionMakerByName(name string) (decision.DecisionMaker, error) {
	switch name {
	case "sma_cross":
		return decision.SMACross{}, nil
	case "hold":
		return decision.Hold{}, nil
	default:
		return nil, fmt.Errorf("unknown decision maker %q", name)
	}
}

// simulateAction wires a full run: feed from parquet, config from YAML, the
// chosen decision maker, optional persistence, then the engine.
func simulateAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	makerName := cmd.String("decision")
	storePath := cmd.String("store")

	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config, err := sim.ParseConfig(configData)
	if err != nil {
		return err
	}

	marketFeed, err := feed.NewDuckDBFeed("", log)
	if err != nil {
		return err
	}
	defer marketFeed.Close()

	if err := marketFeed.Initialize(dataPath); err != nil {
		return err
	}

	maker, err := decisionMakerByName(makerName)
	if err != nil {
		return err
	}

	engine := sim.NewEngine(config, marketFeed, maker, log)

	var runStore *store.DuckDBStore

	if storePath != "" {
		runStore, err = store.NewDuckDBStore(storePath, log)
		if err != nil {
			return err
		}
		defer runStore.Close()

		engine.SetStore(runStore)
	}

	var bar *progressbar.ProgressBar

	engine.SetDayCallback(func(day, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total))
		}

		_ = bar.Add(1)
	})

	report, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	resultsFolder := config.ResultsFolder
	if resultsFolder == "" {
		resultsFolder = "results"
	}

	if err := os.MkdirAll(resultsFolder, 0755); err != nil {
		return fmt.Errorf("failed to create results folder: %w", err)
	}

	reportPath := filepath.Join(resultsFolder, "report.yaml")
	if err := types.WriteRunReport(reportPath, report); err != nil {
		return err
	}

	if runStore != nil {
		if err := runStore.ExportParquet(resultsFolder); err != nil {
			return err
		}
	}

	fmt.Printf("Run %s finished: final equity %.2f (%.2f%% return), report at %s\n",
		report.RunID, report.FinalEquity, report.TotalReturn*100, reportPath)

	return nil
}

// schemaAction prints the config JSON schema, for editor integration.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := sim.SimulationConfig{}

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "simulate",
		Usage: "Run a day-stepped trading simulation over daily bars",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the YAML simulation config",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the parquet file with daily bars",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "decision",
				Aliases: []string{"m"},
				Usage:   "Decision maker to run (sma_cross, hold)",
				Value:   "sma_cross",
			},
			&cli.StringFlag{
				Name:    "store",
				Aliases: []string{"s"},
				Usage:   "Optional DuckDB path to persist transactions and snapshots",
			},
		},
		Action: simulateAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the simulation config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
