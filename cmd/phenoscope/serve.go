package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quietsignal/phenoscope/internal/common"
	"github.com/quietsignal/phenoscope/internal/engine"
	"github.com/quietsignal/phenoscope/internal/model"
	"github.com/quietsignal/phenoscope/internal/server"
	"github.com/quietsignal/phenoscope/internal/storage"
)

const shutdownTimeout = 5 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Train the models and serve the analysis API",
		Long: `Train the classifier ensemble on a fresh synthetic population,
pre-generate a longitudinal phenotype stream, and serve analyze/reset
endpoints over HTTP. Training happens once, before the first request.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":5000", "Listen address")
	cmd.Flags().Int("samples", 2000, "Synthetic population size for training")
	cmd.Flags().Uint64("seed", 42, "Random seed for generation and training")
	cmd.Flags().Int("days", 30, "Length of the pre-generated stream in days")
	cmd.Flags().String("scenario", "increasing_risk", "Drift scenario (stable, increasing_risk, improving)")
	cmd.Flags().Int("history", 10, "Rolling prediction-history window size")
	cmd.Flags().String("db", "", "Optional SQLite path for the assessment audit log")

	_ = viper.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("serve.samples", cmd.Flags().Lookup("samples"))
	_ = viper.BindPFlag("serve.seed", cmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("serve.days", cmd.Flags().Lookup("days"))
	_ = viper.BindPFlag("serve.scenario", cmd.Flags().Lookup("scenario"))
	_ = viper.BindPFlag("serve.history", cmd.Flags().Lookup("history"))
	_ = viper.BindPFlag("serve.db", cmd.Flags().Lookup("db"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	scenario, err := model.ParseScenario(viper.GetString("serve.scenario"))
	if err != nil {
		return err
	}

	eng, err := engine.New(engine.Config{
		PopulationSize: viper.GetInt("serve.samples"),
		Seed:           viper.GetUint64("serve.seed"),
		StreamDays:     viper.GetInt("serve.days"),
		Scenario:       scenario,
		HistorySize:    viper.GetInt("serve.history"),
	})
	if err != nil {
		return common.NewUserError("failed to initialize engine", err)
	}

	var store server.AssessmentStore
	if dbPath := viper.GetString("serve.db"); dbPath != "" {
		db, err := storage.NewSQLiteStorage(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open assessment log: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				slog.Error("Failed to close assessment log", "error", err)
			}
		}()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate assessment log: %w", err)
		}
		store = db
		slog.Info("Assessment audit log enabled", "path", dbPath)
	}

	addr := viper.GetString("serve.addr")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.New(eng, store).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("Serving analysis API", "addr", addr)
		errChan <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
