package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/RheinXenon/stocksim/internal/types"
)

// downloader pulls daily bars from Polygon and stages them in DuckDB before
// exporting a parquet file the simulation feed can read directly.
type downloader struct {
	client *polygon.Client
	db     *sql.DB
}

func newDownloader(apiKey string) (*downloader, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("POLYGON_API_KEY is required")
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open staging database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			instrument VARCHAR,
			date TIMESTAMP,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging table: %w", err)
	}

	return &downloader{
		client: polygon.New(apiKey),
		db:     db,
	}, nil
}

func (d *downloader) close() error {
	return d.db.Close()
}

// fetch downloads one ticker's daily bars into the staging table.
func (d *downloader) fetch(ctx context.Context, ticker string, start, end time.Time) (int, error) {
	totalDays := int(end.Sub(start).Hours()/24) + 1
	bar := progressbar.NewOptions(totalDays,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", ticker)),
		progressbar.OptionShowCount(),
	)

	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(50000)

	iter := d.client.ListAggs(ctx, params)
	count := 0

	for iter.Next() {
		agg := iter.Item()

		day := types.Midnight(time.Time(agg.Timestamp))

		_, err := d.db.Exec(
			`INSERT INTO market_data VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			ticker, day, agg.Open, agg.High, agg.Low, agg.Close, agg.Volume,
		)
		if err != nil {
			return count, fmt.Errorf("failed to stage bar: %w", err)
		}

		count++

		_ = bar.Add(1)
	}

	if err := iter.Err(); err != nil {
		return count, fmt.Errorf("download failed for %s: %w", ticker, err)
	}

	_ = bar.Finish()

	return count, nil
}

// export writes the staged bars to a parquet file.
func (d *downloader) export(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	_, err := d.db.Exec(fmt.Sprintf(
		`COPY (SELECT * FROM market_data ORDER BY instrument, date) TO '%s' (FORMAT PARQUET)`, path))
	if err != nil {
		return fmt.Errorf("failed to export parquet: %w", err)
	}

	return nil
}

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	tickers := cmd.StringSlice("ticker")
	start := cmd.Timestamp("start")
	end := cmd.Timestamp("end")
	output := cmd.String("output")

	d, err := newDownloader(os.Getenv("POLYGON_API_KEY"))
	if err != nil {
		return err
	}
	defer d.close()

	total := 0

	for _, ticker := range tickers {
		count, err := d.fetch(ctx, ticker, start, end)
		if err != nil {
			return err
		}

		log.Printf("Downloaded %d daily bars for %s", count, ticker)

		total += count
	}

	if err := d.export(output); err != nil {
		return err
	}

	log.Printf("Wrote %d bars to %s", total, output)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download daily bars and write them as parquet",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Ticker symbol, repeatable",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output parquet path",
				Value:   filepath.Join("data", "market_data.parquet"),
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
