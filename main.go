package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"

	"bird-detection/config"
	"bird-detection/db"
	"bird-detection/model"
	"bird-detection/stats"
	"bird-detection/taxa"
	"bird-detection/utils"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Expected 'stats', 'train' or 'run' subcommand")
		os.Exit(1)
	}
	_ = godotenv.Load()

	logger := utils.GetLogger()
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "stats":
		statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
		configPath := statsCmd.String("config", "run.yaml", "Path to the run configuration file")
		statsCmd.Parse(os.Args[2:])
		err = runStats(ctx, *configPath)
	case "train":
		trainCmd := flag.NewFlagSet("train", flag.ExitOnError)
		configPath := trainCmd.String("config", "run.yaml", "Path to the run configuration file")
		species := trainCmd.String("species", "", "Comma-separated species codes (default: every column of the train file)")
		seed := trainCmd.Int64("seed", 42, "Random seed for splitting and forest training")
		trainCmd.Parse(os.Args[2:])
		err = runTrain(ctx, *configPath, *species, *seed)
	case "run":
		runCmd := flag.NewFlagSet("run", flag.ExitOnError)
		configPath := runCmd.String("config", "run.yaml", "Path to the run configuration file")
		seed := runCmd.Int64("seed", 42, "Random seed for splitting and forest training")
		runCmd.Parse(os.Args[2:])
		if err = runStats(ctx, *configPath); err == nil {
			err = runTrain(ctx, *configPath, "", *seed)
		}
	default:
		fmt.Println("Expected 'stats', 'train' or 'run' subcommand")
		os.Exit(1)
	}

	if err != nil {
		logger.ErrorContext(ctx, "command failed", slog.Any("error", xerrors.New(err)))
		os.Exit(1)
	}
}

// runStats computes and persists first- and second-order statistics for every
// label of the train file.
func runStats(ctx context.Context, configPath string) error {
	logger := utils.GetLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !cfg.General.DBRW {
		return fmt.Errorf("db_rw is disabled: spectrogram generation is an external service, wire its output into the spectrograms collection and enable db_rw")
	}

	table, err := stats.LoadLabelTable(cfg.General.TrainFile)
	if err != nil {
		return err
	}

	store, err := db.NewMongoStore(ctx, utils.GetEnv("MONGO_URI", "mongodb://localhost:27017"), cfg.General.DBName)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	pool, poolSource, err := loadPool(cfg, store)
	if err != nil {
		return err
	}

	runner := &stats.Runner{
		Source:     store,
		PoolSource: poolSource,
		Writer:     store,
		Pool:       pool,
		NumBands:   cfg.ModelFit.NumFrequencyBands,
		Matcher: stats.MatcherConfig{
			FrequencyBuffer: cfg.ModelFit.TemplateMatchFrequencyBuffer,
			GaussianSigma:   cfg.ModelFit.GaussianFilterSigma,
		},
		Workers: utils.ReturnCPUCount(cfg.General.NumProcessors),
		Logger:  logger,
	}

	labels := table.Labels()
	logger.Info("computing file statistics",
		slog.Int("labels", len(labels)),
		slog.Int("workers", runner.Workers))
	return runner.RunAll(ctx, labels)
}

// runTrain assembles the feature matrix per species, fits a classifier, and
// persists the model artifacts and metric report.
func runTrain(ctx context.Context, configPath, speciesList string, seed int64) error {
	logger := utils.GetLogger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	table, err := stats.LoadLabelTable(cfg.General.TrainFile)
	if err != nil {
		return err
	}

	store, err := db.NewMongoStore(ctx, utils.GetEnv("MONGO_URI", "mongodb://localhost:27017"), cfg.General.DBName)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	pool, _, err := loadPool(cfg, store)
	if err != nil {
		return err
	}

	if err := utils.CreateFolder(cfg.General.DataDir); err != nil {
		return err
	}
	reports, err := db.NewReportStore(filepath.Join(cfg.General.DataDir, "training_reports.db"))
	if err != nil {
		return err
	}
	defer reports.Close()

	var lookup *taxa.Service
	if cfg.General.SpeciesTable != "" {
		if lookup, err = taxa.Load(cfg.General.SpeciesTable); err != nil {
			return err
		}
	}

	species := table.Species()
	if speciesList != "" {
		species = strings.Split(speciesList, ",")
	}

	trainer := &model.Trainer{
		Grid: model.GridParams{
			NEstimators:     cfg.ModelFit.NEstimators,
			MaxFeatures:     cfg.ModelFit.MaxFeatures,
			MinSamplesSplit: cfg.ModelFit.MinSamplesSplit,
		},
		Seed:   seed,
		Logger: logger,
	}

	for _, sp := range species {
		sp = strings.TrimSpace(sp)
		files, err := table.Files(sp)
		if err != nil {
			return err
		}

		X, y, err := stats.BuildXY(ctx, store, pool, files, cfg.ModelFit.NumFrequencyBands)
		if err != nil {
			return fmt.Errorf("assemble features for %s: %w", sp, err)
		}

		name := sp
		if lookup != nil {
			if full, ok := lookup.ByCode(sp); ok {
				name = full.Common
			}
		}

		forest, scaler, report, err := trainer.Fit(X, y)
		if err != nil {
			logger.Warn("skipping species", slog.String("species", name), slog.Any("reason", err))
			continue
		}

		if err := store.WriteModel(ctx, sp, forest, scaler); err != nil {
			return err
		}
		if err := reports.StoreReport(sp, *report); err != nil {
			return err
		}
		logger.Info("species model persisted",
			slog.String("species", name),
			slog.Float64("test_roc_auc", report.Test.ROCAUC),
			slog.Float64("test_precision", report.Test.Precision),
			slog.Float64("test_recall", report.Test.Recall))
	}
	return nil
}

func loadPool(cfg *config.Config, store *db.MongoStore) (*stats.TemplatePool, stats.SpectrogramSource, error) {
	if cfg.ModelFit.TemplatePool == "" {
		return nil, nil, nil
	}
	pool, err := stats.LoadTemplatePool(cfg.ModelFit.TemplatePool)
	if err != nil {
		return nil, nil, err
	}
	var poolSource stats.SpectrogramSource
	if cfg.ModelFit.TemplatePoolDB != "" {
		poolSource = store.WithPoolDatabase(cfg.ModelFit.TemplatePoolDB)
	}
	return pool, poolSource, nil
}
