package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"StockStats/internal/di"
	"StockStats/internal/domain/models"
	"StockStats/internal/ml"
	"StockStats/internal/usecase"
	"StockStats/pkg/config"
	applogger "StockStats/pkg/logger"
	"StockStats/pkg/util"
)

// ErrStatsFailed is returned after a failure result has been printed.
var ErrStatsFailed = errors.New("stats request failed")

// ServicesFactory builds the object graph for one command run.
type ServicesFactory func(cfg *config.Config) (*di.Services, func(), error)

type rootOptions struct {
	configPath string
	debug      bool
}

// NewRootCmd creates the stockctl root command. A nil build uses the wire graph.
func NewRootCmd(out io.Writer, build ServicesFactory) *cobra.Command {
	if build == nil {
		build = di.InitializeServices
	}
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "stockctl",
		Short:         "StockStats - daily market statistics and next-close prediction",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.AddCommand(newStatsCmd(opts, build))
	rootCmd.AddCommand(newPredictCmd(opts, build))
	rootCmd.AddCommand(newTrainCmd(opts, build))

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	return rootCmd
}

// loadConfig resolves configuration for a command. Logs go to stderr so that
// stdout carries only the command's JSON.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(o.configPath)
	if err != nil {
		return nil, err
	}
	cfg.Log.Output = "stderr"
	if o.debug {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newStatsCmd(opts *rootOptions, build ServicesFactory) *cobra.Command {
	var (
		p       usecase.FetchParams
		noCache bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarise a symbol's daily bars over a date window",
		Long: `Compute high, low, average close and last close for a symbol.
Example: stockctl stats --symbol AAPL --start 2024-01-01 --end 2024-03-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			svc, cleanup, err := build(cfg)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			defer cleanup()

			p.HasTimeout = true
			p.UseCache = !noCache
			res := svc.Engine.Fetch(cmd.Context(), p)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if _, failed := res.(models.StatsFailure); failed {
				return ErrStatsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&p.Symbol, "symbol", "", "Ticker symbol")
	cmd.Flags().StringVar(&p.Start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p.End, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&p.Timeout, "timeout", 15, "Provider timeout in seconds")
	cmd.Flags().StringVar(&p.SampleFile, "sample-file", "", "Read bars from a local CSV instead of the provider")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the result cache")
	cmd.Flags().BoolVar(&p.RefreshCache, "refresh-cache", false, "Drop any cached entry before fetching")
	_ = cmd.MarkFlagRequired("symbol")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func newPredictCmd(opts *rootOptions, build ServicesFactory) *cobra.Command {
	var (
		symbol    string
		lookback  int
		modelPath string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the next close for a symbol",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if modelPath != "" {
				cfg.Model.Path = modelPath
			}
			svc, cleanup, err := build(cfg)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			defer cleanup()

			res, err := svc.Predictor.Predict(cmd.Context(), symbol, lookback)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "Ticker symbol")
	cmd.Flags().IntVar(&lookback, "lookback", 60, "Lookback window in days (40-365)")
	cmd.Flags().StringVar(&modelPath, "model", "", "Model artifact path (overrides config)")
	_ = cmd.MarkFlagRequired("symbol")

	return cmd
}

func newTrainCmd(opts *rootOptions, build ServicesFactory) *cobra.Command {
	var (
		ticker, start, end, output, kind string
		trees                            int
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit a next-close model and write the artifact",
		Long: "Fit a model predicting the next close from the standard features and write a JSON artifact.\n" +
			"--kind random_forest (default) bags regression trees; --kind linear fits ordinary least squares.",
		RunE: func(cmd *cobra.Command, args []string) error {
			trainOpts := ml.DefaultTrainOptions()
			trainOpts.Trees = trees
			fit, err := trainerFor(kind)
			if err != nil {
				return err
			}

			from, err := util.ParseISODate(start)
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			to, err := util.ParseISODate(end)
			if err != nil {
				return fmt.Errorf("end: %w", err)
			}
			if to.Before(from) {
				return fmt.Errorf("end %s is before start %s", end, start)
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			svc, cleanup, err := build(cfg)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}
			defer cleanup()

			return runTrain(cmd.Context(), cmd.OutOrStdout(), svc, cfg.MarketData.DefaultTimeout,
				util.NormalizeSymbol(ticker), from, to, output, fit, trainOpts)
		},
	}

	cmd.Flags().StringVar(&ticker, "ticker", "", "Ticker symbol to train on")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&output, "output", "models/stock_model.json", "Artifact output path")
	cmd.Flags().StringVar(&kind, "kind", ml.KindRandomForest, "Model kind: random_forest or linear")
	cmd.Flags().IntVar(&trees, "trees", ml.DefaultTrainOptions().Trees, "Number of trees (random_forest only)")
	_ = cmd.MarkFlagRequired("ticker")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

type trainFunc func(models.Series, ml.TrainOptions) (*ml.Artifact, error)

func trainerFor(kind string) (trainFunc, error) {
	switch kind {
	case ml.KindRandomForest:
		return ml.TrainForest, nil
	case ml.KindLinear:
		return ml.TrainLinear, nil
	default:
		return nil, fmt.Errorf("unknown model kind %q (want %s or %s)", kind, ml.KindRandomForest, ml.KindLinear)
	}
}

func runTrain(ctx context.Context, out io.Writer, svc *di.Services, timeout time.Duration, ticker string, from, to time.Time, output string, fit trainFunc, opts ml.TrainOptions) error {
	series, err := svc.Source.Get(ctx, ticker, from, to, timeout)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", ticker, err)
	}
	svc.Logger.Info("training data loaded",
		applogger.String("ticker", ticker),
		applogger.Int("bars", len(series)),
	)

	art, err := fit(series, opts)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	if err := ml.SaveArtifact(output, art); err != nil {
		return err
	}

	fmt.Fprintf(out, "Model saved to %s\n", output)
	fmt.Fprintf(out, "MSE: %.4f\n", art.Metrics.MSE)
	fmt.Fprintf(out, "R²:  %.4f\n", art.Metrics.R2)
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
