package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/3rww/rainfall-api/services/api/ids"
	"github.com/3rww/rainfall-api/services/api/logging"
	"github.com/3rww/rainfall-api/services/api/pivot"
	"github.com/3rww/rainfall-api/services/api/reference"
	"github.com/3rww/rainfall-api/services/api/teragon"
	"github.com/3rww/rainfall-api/services/api/timeutil"
	"github.com/3rww/rainfall-api/services/probe/internal/config"
	"github.com/3rww/rainfall-api/services/probe/internal/report"
)

const appName = "rainfall-probe"

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, "dev", cfg.LogLevel, version, appName)

	window, err := timeutil.ParseDates(cfg.Dates, cfg.Location())
	if err != nil {
		return err
	}
	locs, err := locations(cfg, logger)
	if err != nil {
		return err
	}

	adapter := teragon.NewAdapter(
		cfg.Upstream.Generation,
		teragon.Endpoints{Gauges: cfg.Upstream.GaugeURL, Pixels: cfg.Upstream.PixelURL},
		teragon.Credentials{UserID: cfg.Upstream.UserID, Passwd: cfg.Upstream.Passwd, UserPtr: cfg.Upstream.UserPtr},
		cfg.Location(),
	)
	req := teragon.Request{
		Kind:     cfg.Kind,
		IDs:      locs,
		Window:   window,
		Interval: cfg.Interval,
		Zerofill: cfg.Zerofill,
	}

	if cfg.DryRun {
		payload, err := adapter.Payload(req)
		if err != nil {
			return err
		}
		logger.Info("dry-run: skipping request", "endpoint", adapter.Endpoint(cfg.Kind), "locations", len(locs))
		fmt.Println(payload.Encode())
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Upstream.Timeout+10*time.Second)
	defer cancel()

	client := teragon.NewClient(adapter, teragon.ClientConfig{Timeout: cfg.Upstream.Timeout}, logger)
	rep := &report.Report{
		Upstream:  adapter.Name(),
		Kind:      string(cfg.Kind),
		Locations: len(locs),
		Start:     window.Start,
		End:       window.End,
	}

	started := time.Now()
	body, err := client.Fetch(ctx, req)
	if err != nil {
		return err
	}
	rep.Fetch, rep.Bytes = time.Since(started), len(body)

	started = time.Now()
	tbl, err := adapter.Format().Parse(bytes.NewReader(body))
	if err != nil {
		return err
	}
	rep.Parse = time.Since(started)

	started = time.Now()
	doc, err := pivot.Build(tbl, cfg.KeyedBy)
	if err != nil {
		return err
	}
	rep.Pivot = time.Since(started)
	rep.Summarize(doc)

	if err := rep.WriteText(os.Stderr); err != nil {
		return err
	}
	for _, t := range rep.Totals {
		logger.Debug("total", "key", t.Key, "sum", report.ValueString(t.Sum), "count", t.Count)
	}

	if cfg.PrintJSON {
		out, err := doc.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(out, '\n'))
		return err
	}
	return rep.WriteJSON(os.Stdout)
}

// locations returns the configured ids, falling back to every gauge or to
// the pixel list on disk.
func locations(cfg config.Config, logger *slog.Logger) ([]string, error) {
	if len(cfg.IDs) > 0 {
		if cfg.Kind == teragon.Gauges {
			if err := ids.ValidateGauges(cfg.IDs); err != nil {
				return nil, err
			}
			return cfg.IDs, nil
		}
		for _, id := range cfg.IDs {
			if err := ids.ValidatePixel(id); err != nil {
				return nil, err
			}
		}
		return cfg.IDs, nil
	}
	if cfg.Kind == teragon.Gauges {
		return ids.DefaultGauges(), nil
	}
	pixels, err := reference.LoadPixels(cfg.PixelsFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded pixel list", "file", cfg.PixelsFile, "count", len(pixels))
	return pixels, nil
}
