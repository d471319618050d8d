package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/SscSPs/exchanger/internal/dto"
	"github.com/SscSPs/exchanger/internal/platform/config"
	"github.com/spf13/cobra"
)

const (
	sourceFlag     = "source"
	targetFlag     = "target"
	dateFlag       = "date"
	amountFlag     = "amount"
	currenciesFlag = "currencies"
	fromFlag       = "from"
	toFlag         = "to"
	startFlag      = "start"
	asyncFlag      = "async"

	sourceFlagDesc = "source currency code"
	targetFlagDesc = "target currency code"
	amountFlagDesc = "amount in the source currency"
)

// run executes the command named by args; with no command it serves. Query commands print JSON.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	root := newRootCommand(cfg, logger)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "exchanger",
		Short:         "exchange rate resolution and persistence engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          withApp(cfg, logger, func(cmd *cobra.Command, a *app) error { return serve(cmd.Context(), a) }),
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "run the metrics endpoint and the backfill worker (default)",
			Args:  cobra.NoArgs,
			RunE:  withApp(cfg, logger, func(cmd *cobra.Command, a *app) error { return serve(cmd.Context(), a) }),
		},
		getRateCommand(cfg, logger),
		getFillCommand(cfg, logger),
		getConvertCommand(cfg, logger),
		getTWRCommand(cfg, logger),
	)

	return root
}

// withApp wires the process before fn runs and releases it afterwards.
func withApp(cfg *config.Config, logger *slog.Logger, fn func(*cobra.Command, *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a)
	}
}

func getRateCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	var req dto.GetExchangeRateRequest
	cmd := &cobra.Command{
		Use:   "rate",
		Short: "get (resolving if needed) the rate of a pair on a date",
		Args:  cobra.NoArgs,
		RunE: withApp(cfg, logger, func(cmd *cobra.Command, a *app) error {
			rate, err := a.services.ExchangeRate.GetExchangeRate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rate)
		}),
	}

	cmd.Flags().StringVar(&req.SourceCurrency, sourceFlag, "", sourceFlagDesc)
	cmd.Flags().StringVar(&req.TargetCurrency, targetFlag, "", targetFlagDesc)
	cmd.Flags().StringVar(&req.Date, dateFlag, "", "valuation date, YYYY-MM-DD")
	markRequired(cmd, sourceFlag, targetFlag, dateFlag)

	return cmd
}

func getFillCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	var (
		req   dto.FillRangeRequest
		async bool
	)
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "fill a rate table over a date range, inline or through the queue",
		Args:  cobra.NoArgs,
		RunE: withApp(cfg, logger, func(cmd *cobra.Command, a *app) error {
			if async {
				n, err := a.services.Backfill.FillRangeAsync(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"jobsEnqueued": n})
			}

			table, err := a.services.Backfill.FillRange(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), table)
		}),
	}

	cmd.Flags().StringVar(&req.SourceCurrency, sourceFlag, "", sourceFlagDesc)
	cmd.Flags().StringSliceVar(&req.Currencies, currenciesFlag, nil, "target currency codes (default: all configured)")
	cmd.Flags().StringVar(&req.DateFrom, fromFlag, "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&req.DateTo, toFlag, "", "last date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&async, asyncFlag, false, "enqueue one job per missing cell instead of resolving inline")
	markRequired(cmd, sourceFlag, fromFlag, toFlag)

	return cmd
}

func getConvertCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	var req dto.ConvertRequest
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "convert an amount at the latest known rate",
		Args:  cobra.NoArgs,
		RunE: withApp(cfg, logger, func(cmd *cobra.Command, a *app) error {
			result, err := a.services.Financial.Convert(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		}),
	}

	cmd.Flags().StringVar(&req.SourceCurrency, sourceFlag, "", sourceFlagDesc)
	cmd.Flags().StringVar(&req.TargetCurrency, targetFlag, "", targetFlagDesc)
	cmd.Flags().StringVar(&req.Amount, amountFlag, "", amountFlagDesc)
	markRequired(cmd, sourceFlag, targetFlag, amountFlag)

	return cmd
}

func getTWRCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	var req dto.TimeWeightedReturnRequest
	cmd := &cobra.Command{
		Use:   "twr",
		Short: "time-weighted return of a currency position",
		Args:  cobra.NoArgs,
		RunE: withApp(cfg, logger, func(cmd *cobra.Command, a *app) error {
			result, err := a.services.Financial.TimeWeightedReturn(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		}),
	}

	cmd.Flags().StringVar(&req.SourceCurrency, sourceFlag, "", sourceFlagDesc)
	cmd.Flags().StringVar(&req.TargetCurrency, targetFlag, "", targetFlagDesc)
	cmd.Flags().StringVar(&req.Amount, amountFlag, "", amountFlagDesc)
	cmd.Flags().StringVar(&req.StartDate, startFlag, "", "start date, YYYY-MM-DD")
	markRequired(cmd, sourceFlag, targetFlag, amountFlag, startFlag)

	return cmd
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		_ = cmd.MarkFlagRequired(name)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
