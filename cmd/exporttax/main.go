package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"exporttax/internal/config"
	"exporttax/internal/dmr"
	"exporttax/internal/prompt"
	"exporttax/internal/workflow"
)

var (
	cfgPath string
	plate   string
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "exporttax",
	Short: "Vehicle export duty calculator backed by the DMR valuation API",
	Long: `exporttax fetches valuation and emission data for a vehicle by license
plate, combines it with manually entered figures, writes everything into the
fixed spreadsheet templates and prints the export duty the spreadsheet's own
formulas compute.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := dmr.NewClient(cfg.API.Token,
		dmr.WithBaseURL(cfg.API.BaseURL),
		dmr.WithLogger(logger),
	)
	runner := &workflow.Runner{
		Config:   cfg,
		Client:   client,
		Prompter: prompt.NewConsole(),
		Log:      logger,
	}
	if err := runner.Run(ctx, plate); err != nil {
		fmt.Fprintf(os.Stderr, "Fejl: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.toml (default: next to the executable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVar(&plate, "plate", "", "license plate; prompted for when omitted")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
