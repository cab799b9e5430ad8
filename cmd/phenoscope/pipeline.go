package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/rand"

	"github.com/quietsignal/phenoscope/internal/classify"
	"github.com/quietsignal/phenoscope/internal/cli"
	"github.com/quietsignal/phenoscope/internal/explain"
	"github.com/quietsignal/phenoscope/internal/pipeline"
	"github.com/quietsignal/phenoscope/internal/simulate"
)

func pipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the offline training and evaluation pipeline",
		Long: `Generate a synthetic population, preprocess it, train both
classifiers, report held-out evaluation metrics, and demonstrate one
explained prediction. Nothing is served or persisted.`,
		RunE: runPipeline,
	}

	cmd.Flags().Int("samples", 2000, "Synthetic population size")
	cmd.Flags().Uint64("seed", 42, "Random seed")

	_ = viper.BindPFlag("pipeline.samples", cmd.Flags().Lookup("samples"))
	_ = viper.BindPFlag("pipeline.seed", cmd.Flags().Lookup("seed"))

	return cmd
}

func runPipeline(_ *cobra.Command, _ []string) error {
	printEthicsCheck()

	samples := viper.GetInt("pipeline.samples")
	seed := viper.GetUint64("pipeline.seed")

	slog.Info("Generating synthetic digital behavior data", "samples", samples, "seed", seed)
	population, err := simulate.GeneratePopulation(samples, seed)
	if err != nil {
		return fmt.Errorf("failed to generate population: %w", err)
	}

	slog.Info("Preprocessing and splitting data")
	fitted, err := pipeline.FitTransform(population, seed)
	if err != nil {
		return fmt.Errorf("failed to preprocess population: %w", err)
	}
	slog.Info("Label encoding fitted", "mapping", encodingSummary(fitted))

	slog.Info("Training machine learning models")
	bar := progressbar.Default(int64(classify.DefaultForestConfig().NumTrees), "training forest")
	ensemble, err := classify.TrainEnsemble(fitted.XTrain, fitted.YTrain, fitted.Encoder.NumClasses(), seed, func() {
		_ = bar.Add(1)
	})
	if err != nil {
		return fmt.Errorf("failed to train ensemble: %w", err)
	}
	_ = bar.Finish()

	eval := ensemble.Evaluate(fitted.XTest, fitted.YTest, fitted.Encoder.Classes())
	slog.Info(cli.RenderBox("Research Prototype Evaluation", evaluationReport(eval)))

	if err := demoExplanation(fitted, ensemble, seed); err != nil {
		return err
	}

	slog.Info(cli.FormatSuccess("Pipeline completed"))
	return nil
}

func printEthicsCheck() {
	content := strings.Join([]string{
		"[x] DATA PRIVACY:  No real user data is used. All input is synthetic.",
		"[x] NO DIAGNOSIS:  Output is a risk tier only, not a medical condition.",
		"[x] HUMAN-IN-LOOP: Output supports review, not automated decisions.",
	}, "\n")
	slog.Info(cli.RenderBox("Pre-Run Check", content))
}

func encodingSummary(fitted *pipeline.Fitted) string {
	parts := make([]string, 0, fitted.Encoder.NumClasses())
	for i, label := range fitted.Encoder.Classes() {
		parts = append(parts, fmt.Sprintf("%s=%d", label, i))
	}
	return strings.Join(parts, " ")
}

func evaluationReport(eval classify.Evaluation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Primary (forest) accuracy:    %.4f\n", eval.Accuracy)
	fmt.Fprintf(&b, "Baseline (logistic) accuracy: %.4f\n\n", eval.BaselineAccuracy)

	fmt.Fprintf(&b, "%-10s %10s %10s %10s %10s\n", "class", "precision", "recall", "f1", "support")
	for _, m := range eval.PerClass {
		fmt.Fprintf(&b, "%-10s %10.3f %10.3f %10.3f %10d\n", m.Label, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintf(&b, "%-10s %10.3f %10.3f %10.3f", "macro avg", eval.MacroPrecision, eval.MacroRecall, eval.MacroF1)
	return b.String()
}

// demoExplanation scores one held-out sample and renders its explanation,
// mirroring what the serving path produces.
func demoExplanation(fitted *pipeline.Fitted, ensemble *classify.Ensemble, seed uint64) error {
	if len(fitted.XTest) == 0 {
		return nil
	}

	rng := rand.New(rand.NewSource(seed))
	idx := rng.Intn(len(fitted.XTest))
	scaled := fitted.XTest[idx]

	primary := ensemble.Primary()
	probs := primary.PredictProba(scaled)
	confidence, labelIdx, err := classify.Calibrate(probs)
	if err != nil {
		return fmt.Errorf("failed to calibrate demo prediction: %w", err)
	}
	predicted, err := fitted.Encoder.InverseTransform(labelIdx)
	if err != nil {
		return fmt.Errorf("failed to decode demo label: %w", err)
	}
	truth, err := fitted.Encoder.InverseTransform(fitted.YTest[idx])
	if err != nil {
		return fmt.Errorf("failed to decode true label: %w", err)
	}

	explanation := explain.Explanation(primary.FeatureImportances(), scaled, fitted.FeatureNames, predicted, confidence)

	var b strings.Builder
	fmt.Fprintf(&b, "Test sample:          #%d\n", idx)
	fmt.Fprintf(&b, "True risk level:      %s\n", truth)
	fmt.Fprintf(&b, "Predicted risk level: %s\n\n", predicted)
	b.WriteString(explanation)
	slog.Info(cli.RenderBox("Prediction & Explainability Demo", b.String()))
	return nil
}
