package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zen-systems/erpassist/pkg/adapter"
	"github.com/zen-systems/erpassist/pkg/config"
	"github.com/zen-systems/erpassist/pkg/docstore"
	"github.com/zen-systems/erpassist/pkg/server"
	"github.com/zen-systems/erpassist/pkg/tracing"
	"github.com/zen-systems/erpassist/pkg/vision"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "erpassist",
		Short: "Help-desk assistant for the ERP manuals",
		Long: `erpassist triages support questions, answers them from the indexed ERP
	manuals with citations, asks for missing details or opens a ticket, and can
	diagnose screenshots with a vision model.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to assistant config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(modelsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var addrFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ac := a.cfg.Assistant
			shutdownTracing, err := tracing.Init(ctx, ac.Tracing)
			if err != nil {
				return err
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownTracing(sctx); err != nil {
					a.log.Warn("tracing shutdown", zap.Error(err))
				}
			}()

			srv := server.New(a.engine, a.vision, server.Options{
				ImageDir:    a.images.Dir(),
				URLPrefix:   ac.Images.URLPrefix,
				CORSOrigins: ac.Server.CORSOrigins,
				BodyLimitMB: ac.Server.BodyLimitMB,
				Metrics:     a.metrics.Handler(),
				Logger:      a.log,
			})

			addr := ac.Server.Addr
			if addrFlag != "" {
				addr = addrFlag
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Listen(addr)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				a.log.Info("shutting down")
				sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(sctx)
			}
		},
	}

	cmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (overrides server.addr)")

	return cmd
}

func askCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Run one help-desk turn and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			state, err := a.engine.Run(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(state)
		},
	}

	return cmd
}

func analyzeCmd() *cobra.Command {
	var imageFlag string

	cmd := &cobra.Command{
		Use:   "analyze --image PATH [question]",
		Short: "Diagnose a screenshot with the vision model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if imageFlag == "" {
				return fmt.Errorf("--image is required")
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			analysis, err := a.vision.Analyze(cmd.Context(), imageFlag, strings.Join(args, " "))
			if errors.Is(err, vision.ErrImageNotFound) {
				return errors.New(vision.NotFoundMessage)
			}
			if err != nil {
				return err
			}

			fmt.Println(analysis)
			return nil
		},
	}

	cmd.Flags().StringVar(&imageFlag, "image", "", "path to the screenshot")

	return cmd
}

func indexCmd() *cobra.Command {
	var chunksFlag string

	cmd := &cobra.Command{
		Use:   "index --chunks FILE",
		Short: "Embed pre-chunked JSONL records into the passage store",
		Long: `Reads JSON Lines records ({"id","source","page","text"}, page 0-based),
	embeds those without an embedding and upserts them into the configured store.
	The memory store is written back to store.records_path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if chunksFlag == "" {
				return fmt.Errorf("--chunks is required")
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := a.fs.Open(chunksFlag)
			if err != nil {
				return fmt.Errorf("open chunks: %w", err)
			}
			records, err := docstore.ReadRecords(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("read chunks: %w", err)
			}

			if err := docstore.Index(cmd.Context(), a.embedder, a.store, records); err != nil {
				return err
			}

			if mem, ok := a.store.(*docstore.MemoryStore); ok {
				path := a.cfg.Assistant.Store.RecordsPath
				if path == "" {
					return fmt.Errorf("memory store needs store.records_path to persist the index")
				}
				if err := docstore.SaveMemory(mem, a.fs, path); err != nil {
					return err
				}
			}

			a.log.Info("indexed records", zap.Int("count", len(records)), zap.String("store", a.cfg.Assistant.Store.Provider))
			return nil
		},
	}

	cmd.Flags().StringVar(&chunksFlag, "chunks", "", "JSONL file with pre-chunked records")

	return cmd
}

func modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List adapters, configured models and key status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			adapters, err := adapter.NewRegistry(adapter.Keys{
				Google:    cfg.GoogleAPIKey,
				OpenAI:    cfg.OpenAIAPIKey,
				Anthropic: cfg.AnthropicAPIKey,
				DeepSeek:  cfg.DeepSeekAPIKey,
			})
			if err != nil {
				return fmt.Errorf("failed to create adapters: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODELS\tSTATUS")
			for _, provider := range []string{"anthropic", "deepseek", "google", "openai", "mock"} {
				models := "-"
				if a, ok := adapters[provider]; ok {
					models = strings.Join(a.Models(), ", ")
				}
				status := "no key"
				if cfg.HasAdapter(provider) {
					status = "ready"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", provider, models, status)
			}
			fmt.Fprintln(w)

			ac := cfg.Assistant
			fmt.Fprintln(w, "ROLE\tADAPTER\tMODEL")
			fmt.Fprintf(w, "triage\t%s\t%s\n", ac.Triage.Adapter, ac.ResolveModel(ac.Triage.Model))
			fmt.Fprintf(w, "answer\t%s\t%s\n", ac.Answer.Adapter, ac.ResolveModel(ac.Answer.Model))
			fmt.Fprintf(w, "vision\t%s\t%s\n", ac.Vision.Adapter, ac.ResolveModel(ac.Vision.Model))
			fmt.Fprintf(w, "embedding\t%s\t%s\n", ac.Embedding.Provider, ac.Embedding.Model)

			return w.Flush()
		},
	}

	return cmd
}
