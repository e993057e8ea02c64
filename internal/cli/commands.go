package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mdcache/internal/cache"
	"mdcache/internal/client"
	"mdcache/internal/journal"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(expirationsCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(cachedCmd)
	rootCmd.AddCommand(journalCmd)

	fetchCmd.Flags().String("interval", "1d", "Bar interval (1m, 5m, 1h, 1d, 1wk, 1mo)")
	fetchCmd.Flags().String("start", "", "Start date or datetime (YYYY-MM-DD)")
	fetchCmd.Flags().String("end", "", "End date or datetime (YYYY-MM-DD)")
	fetchCmd.Flags().String("period", "", "Relative lookback (5d, 3mo, 1y, max)")

	chainCmd.Flags().String("expiration", "", "Expiration date (YYYY-MM-DD, default: nearest)")
	chainCmd.Flags().String("timestamp", "", "Historical snapshot timestamp (RFC 3339)")
	chainCmd.Flags().Bool("no-cache", false, "Skip the snapshot cache and fetch fresh")

	cachedCmd.Flags().String("interval", "1d", "Bar interval to list")

	journalCmd.Flags().Int("limit", 20, "Number of journal entries to show")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [symbol]",
	Short: "Download bars through the cache and emit them as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := setup()
		if err != nil {
			return err
		}

		req := client.Request{Symbols: args[0:1]}
		req.Interval, _ = cmd.Flags().GetString("interval")
		req.Period, _ = cmd.Flags().GetString("period")
		if req.Start, err = parseTimeFlag(cmd, "start"); err != nil {
			return err
		}
		if req.End, err = parseTimeFlag(cmd, "end"); err != nil {
			return err
		}

		bars, err := c.Download(cmd.Context(), req)
		if err != nil {
			return err
		}

		w := csv.NewWriter(os.Stdout)
		defer w.Flush()
		if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume", "vwap"}); err != nil {
			return err
		}
		for _, b := range bars {
			rec := []string{
				b.Timestamp.UTC().Format(time.RFC3339),
				formatFloat(b.Open), formatFloat(b.High), formatFloat(b.Low), formatFloat(b.Close),
				strconv.FormatInt(b.Volume, 10),
				formatFloat(b.VWAP),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	},
}

var expirationsCmd = &cobra.Command{
	Use:   "expirations [symbol]",
	Short: "List available option expiration dates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := setup()
		if err != nil {
			return err
		}
		exps, err := c.Expirations(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, exp := range exps {
			fmt.Println(exp)
		}
		return nil
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain [symbol]",
	Short: "Fetch an option chain snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := setup()
		if err != nil {
			return err
		}

		req := client.ChainRequest{Symbol: args[0]}
		req.Expiration, _ = cmd.Flags().GetString("expiration")
		req.SkipCache, _ = cmd.Flags().GetBool("no-cache")
		if ts, _ := cmd.Flags().GetString("timestamp"); ts != "" {
			req.Timestamp, err = time.Parse(time.RFC3339, ts)
			if err != nil {
				return fmt.Errorf("parsing --timestamp: %w", err)
			}
		}

		chain, err := c.Chain(cmd.Context(), req)
		if err != nil {
			return err
		}
		if chain.Empty() {
			fmt.Println("no chain data available")
			return nil
		}

		fmt.Printf("%s  underlying %.2f (prev close %.2f)\n",
			chain.Underlying.Symbol, chain.Underlying.Price, chain.Underlying.PreviousClose)
		fmt.Printf("%-22s %10s %10s %10s %8s\n", "contract", "strike", "bid", "ask", "iv")
		for _, oc := range chain.Calls {
			fmt.Printf("%-22s %10.2f %10.2f %10.2f %8.4f\n",
				oc.ContractSymbol, oc.Strike, oc.Bid, oc.Ask, oc.ImpliedVolatility)
		}
		for _, oc := range chain.Puts {
			fmt.Printf("%-22s %10.2f %10.2f %10.2f %8.4f\n",
				oc.ContractSymbol, oc.Strike, oc.Bid, oc.Ask, oc.ImpliedVolatility)
		}
		return nil
	},
}

var cachedCmd = &cobra.Command{
	Use:   "cached [symbol]",
	Short: "List the days already cached for a symbol",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := setup()
		if err != nil {
			return err
		}
		interval, _ := cmd.Flags().GetString("interval")

		fc := cache.New(cfg.Cache.Root)
		n := 0
		for day := range fc.Days(args[0], interval) {
			fmt.Println(day.Format("2006-01-02"))
			n++
		}
		fmt.Fprintf(os.Stderr, "%d cached days\n", n)
		return nil
	},
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent provider fetches from the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := setup()
		if err != nil {
			return err
		}
		if !cfg.Journal.Enabled || cfg.Journal.Path == "" {
			return fmt.Errorf("journal is not enabled; set journal.path in the config or MDCACHE_JOURNAL")
		}

		j, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := j.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s  %-8s %-4s %s..%s  %6d rows  %s\n",
				e.FetchedAt.Format(time.RFC3339), e.Symbol, e.Interval,
				e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"),
				e.Rows, e.Elapsed.Round(time.Millisecond))
		}
		return nil
	},
}

func parseTimeFlag(cmd *cobra.Command, name string) (time.Time, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse --%s value %q", name, s)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
