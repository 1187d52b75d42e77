package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"TubeScribe/internal/app"
	"TubeScribe/internal/config"
	"TubeScribe/internal/domain"
	"TubeScribe/internal/logging"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tubescribe",
		Short: "Turns a topic into a video-grounded Chinese article",
	}

	root.AddCommand(serveCommand(), runCommand(), reviewCommand())
	return root
}

func newApplication() (*app.Application, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return app.New(cfg, logger)
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := newApplication()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return application.Serve(ctx)
		},
	}
}

func runCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "run <topic>",
		Short: "Generate one article and wait for it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			job, err := application.RunOnce(ctx, strings.Join(args, " "), domain.Mode(mode))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "article saved to %s (%d characters)\n",
				job.Result.SavedPath, job.Result.WordCount)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(domain.ModeFull),
		"pipeline mode: 1 transcribes the video, 2 drafts from metadata only")
	return cmd
}

func reviewCommand() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "review <article.md>",
		Short: "Validate an article file against the structural rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication()
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.ReviewFile(cmd.Context(), args[0], fix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.IsValid {
				fmt.Fprintln(out, "article is valid")
				return nil
			}

			fmt.Fprintln(out, "article is invalid:")
			for _, reason := range report.Reasons {
				fmt.Fprintf(out, "  - %s\n", reason)
			}
			if !fix {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "repair the article in place when invalid")
	return cmd
}
