package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/storefront-layout/internal/app"
	"github.com/yungbote/storefront-layout/internal/domain/layout"
	"github.com/yungbote/storefront-layout/internal/pipeline"
	"github.com/yungbote/storefront-layout/internal/platform/logger"
	"github.com/yungbote/storefront-layout/internal/vector"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront-layout",
		Short:         "Turns inferred shopper preferences into storefront layouts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newRecommendCmd(), newCatalogCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (configured from the environment)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.LoadConfig()
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides HTTP_ADDR")
	return cmd
}

func serve(parent context.Context, cfg app.Config) error {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.Run() }()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case runErr = <-serveErr:
		if runErr != nil {
			log.Error("Server failed", "error", runErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		log.Warn("Shutdown incomplete", "error", err)
	}
	return runErr
}

func newRecommendCmd() *cobra.Command {
	var (
		profilePath string
		topK        int
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank catalog modules for a preference record read as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := readInput(cmd.InOrStdin(), profilePath)
			if err != nil {
				return err
			}
			p := layout.DefaultPreferenceRecord()
			if err := json.Unmarshal(raw, &p); err != nil {
				return fmt.Errorf("decode preference record: %w", err)
			}
			if err := p.Validate(); err != nil {
				return err
			}
			best, ranked, ok := vector.Recommend(vector.NewCatalogStore(), p, topK)
			if !ok {
				return fmt.Errorf("no modules matched")
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"best": best, "matches": ranked})
		},
	}
	cmd.Flags().StringVarP(&profilePath, "file", "f", "-", "preference record JSON file, - for stdin")
	cmd.Flags().IntVar(&topK, "top-k", 5, "number of matches to print")
	return cmd
}

func newCatalogCmd() *cobra.Command {
	catalog := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect component catalogs",
	}
	validate := &cobra.Command{
		Use:   "validate [path]",
		Short: "Parse a component catalog and report entries per slot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			entries, err := pipeline.LoadCatalog(path)
			if err != nil {
				return err
			}
			perSlot := map[string]int{}
			for _, c := range entries {
				perSlot[c.Type]++
			}
			slots := make([]string, 0, len(perSlot))
			for s := range perSlot {
				slots = append(slots, s)
			}
			sort.Strings(slots)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d components\n", len(entries))
			for _, s := range slots {
				fmt.Fprintf(out, "  %s: %d\n", s, perSlot[s])
			}
			for _, s := range layout.DefaultSlots {
				if perSlot[s] == 0 {
					fmt.Fprintf(out, "warning: no candidates for required slot %s\n", s)
				}
			}
			return nil
		},
	}
	catalog.AddCommand(validate)
	return catalog
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
