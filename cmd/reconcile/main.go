package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/simaogato/taxline-backend/internal/adapter/batch"
	"github.com/simaogato/taxline-backend/internal/config"
)

func main() {
	var (
		configPath   string
		scenarioPath string
		xlsxPath     string
	)
	flag.StringVar(&configPath, "config", "", "path to config file with the currency table")
	flag.StringVar(&scenarioPath, "scenarios", "configs/scenarios.yaml", "path to scenario file")
	flag.StringVar(&xlsxPath, "xlsx", "", "optional path of an XLSX report")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	file, err := batch.LoadFile(scenarioPath)
	if err != nil {
		logger.Error("failed to load scenarios", "path", scenarioPath, "error", err)
		os.Exit(1)
	}

	outcomes := batch.NewRunner(cfg.Currencies, logger).Run(context.Background(), file.Scenarios)

	if err := batch.WriteTable(os.Stdout, outcomes); err != nil {
		logger.Error("failed to write table", "error", err)
		os.Exit(1)
	}

	if xlsxPath != "" {
		if err := batch.WriteXLSX(xlsxPath, outcomes); err != nil {
			logger.Error("failed to write report", "path", xlsxPath, "error", err)
			os.Exit(1)
		}
		logger.Info("report written", "path", xlsxPath)
	}

	if batch.Failed(outcomes) {
		os.Exit(2)
	}
}
