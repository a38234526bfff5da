package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alignwork/agenda/internal/app"
	"github.com/alignwork/agenda/internal/config"
	"github.com/alignwork/agenda/internal/domain/agenda"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "agenda-server",
		Short:         "AlignWork agenda API",
		SilenceUsage:  true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(slotsCmd())
	root.AddCommand(calendarCmd())
	root.AddCommand(cepCmd())
	root.AddCommand(tenantCmd())
	return root
}

func newLogger(w io.Writer) zerolog.Logger {
	if os.Getenv("ENV") == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// build loads the configuration and wires the application. CLI commands log
// to stderr so their stdout stays machine readable.
func build(logOut io.Writer) (*app.App, error) {
	logger := newLogger(logOut)
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(cfg, logger)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	a, err := build(os.Stdout)
	if err != nil {
		return err
	}
	logger := a.Logger
	e := a.Echo()

	go func() {
		addr := ":" + a.Config.Port
		logger.Info().
			Str("addr", addr).
			Str("backend", a.Client.BaseURL()).
			Str("timezone", a.Zone.Name()).
			Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func slotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the slot grid for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			tenant, _ := cmd.Flags().GetString("tenant")

			a, err := build(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if date == "" {
				date = a.Zone.Today(time.Now())
			}
			if tenant == "" {
				tenant = a.State.Tenant()
			}

			slots, err := a.Views.Slots(cmd.Context(), tenant, date)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t(%s)\n", date, a.Views.Policy().Name())
			for _, s := range slots {
				state := "livre"
				if !s.Available {
					state = "ocupado"
				}
				fmt.Fprintf(w, "%s\t%s\n", s.Time, state)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("date", "", "Date (YYYY-MM-DD), defaults to today")
	cmd.Flags().String("tenant", "", "Tenant id, defaults to the stored tenant")
	return cmd
}

func calendarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print per-day appointment counts for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			month, _ := cmd.Flags().GetString("month")
			tenant, _ := cmd.Flags().GetString("tenant")

			a, err := build(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if month == "" {
				month = time.Now().In(a.Zone.Location()).Format("2006-01")
			}
			year, mon, err := parseMonth(month)
			if err != nil {
				return err
			}
			if tenant == "" {
				tenant = a.State.Tenant()
			}

			view, err := a.Views.Month(cmd.Context(), tenant, year, mon)
			if err != nil {
				return err
			}
			return printMonth(cmd.OutOrStdout(), view.Badges)
		},
	}
	cmd.Flags().String("month", "", "Month (YYYY-MM), defaults to the current month")
	cmd.Flags().String("tenant", "", "Tenant id, defaults to the stored tenant")
	return cmd
}

func parseMonth(s string) (int, time.Month, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("invalid month %q", parts[1])
	}
	return year, time.Month(m), nil
}

func printMonth(w io.Writer, badges map[string]agenda.Counts) error {
	days := make([]string, 0, len(badges))
	for d := range badges {
		days = append(days, d)
	}
	sort.Strings(days)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATA\tTOTAL\tCONFIRMADOS\tPENDENTES")
	for _, d := range days {
		c := badges[d]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", d, c.Total, c.Confirmed, c.Pending)
	}
	return tw.Flush()
}

func cepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cep <code>",
		Short: "Look up an address by CEP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			addr, err := a.Lookup.Address(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s", addr.CEP, addr.Logradouro)
			if addr.Bairro != "" {
				fmt.Fprintf(out, ", %s", addr.Bairro)
			}
			fmt.Fprintf(out, "\n%s/%s\n", addr.Localidade, addr.UF)
			return nil
		},
	}
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Show or change the stored tenant",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.State.Tenant())
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Store a tenant id; an empty id restores the default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := build(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			tenant, err := a.Account.SetTenant(id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tenant)
			return nil
		},
	}

	cmd.AddCommand(showCmd)
	cmd.AddCommand(setCmd)
	return cmd
}
