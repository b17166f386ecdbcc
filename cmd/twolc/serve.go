package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/aretw0/twolc/internal/cli"
	httpAdapter "github.com/aretw0/twolc/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP compile service",
	Long: `Starts a stateless JSON API that compiles grammars on request. With
--repo it also serves the repository grammars and streams recompilations
as they change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := loadOptions(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); cmd.Flags().Changed("addr") {
			opts.Config.Server.Addr = addr
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts.Registerer = reg

		logger := cli.CreateLogger(opts.Debug)
		compiler, closeFn, err := cli.NewCompiler(opts, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()
		if err := cli.Ping(ctx, compiler.Store()); err != nil {
			return err
		}

		s := &httpAdapter.Server{
			Compiler: compiler.Engine(),
			Config:   opts.Config.Compile,
			Store:    compiler.Store(),
			Gatherer: reg,
			Logger:   logger,
		}
		loader, err := openLoader(cmd)
		if err != nil {
			return err
		}
		if loader != nil {
			s.Loader = loader
		}

		srv := &http.Server{
			Addr:    opts.Config.Server.Addr,
			Handler: httpAdapter.NewHandler(s),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			cli.PrintSystemMessage(cmd.ErrOrStderr(), "Starting twolc server on %s", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			cli.PrintSystemMessage(cmd.ErrOrStderr(), "Start shutdown... Signal: %v", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				if cerr := srv.Close(); cerr != nil {
					return errors.Join(err, cerr)
				}
				return fmt.Errorf("graceful shutdown did not complete in %v: %w", 5*time.Second, err)
			}
			cli.PrintSystemMessage(cmd.ErrOrStderr(), "twolc server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides config)")
}
