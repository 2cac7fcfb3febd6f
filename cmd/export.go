package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/naka-gawa/github-devlog/internal/config"
	"github.com/naka-gawa/github-devlog/internal/gateway"
	"github.com/naka-gawa/github-devlog/internal/governor"
	"github.com/naka-gawa/github-devlog/internal/sink"
	"github.com/naka-gawa/github-devlog/internal/usecase"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exports GitHub activity to a CSV log",
	Long: `Exports commits, issues, pull requests, forks and releases of the
authenticated user's repositories to a CSV file with the columns
date,time,repository,activity,description. The file is overwritten on every run.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := newLogger(os.Stderr, verbose)

		cfg, err := config.LoadFromEnv()
		if err != nil {
			if errors.Is(err, config.ErrMissingToken) {
				fmt.Fprintln(os.Stderr, "Error: Please set your GitHub token in the GITHUB_TOKEN environment variable.")
			} else {
				fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			}
			os.Exit(1)
		}
		if err := applyFlags(cmd, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
			Token:                  cfg.Token,
			SecondaryRateLimitWait: cfg.SecondaryRateLimitWait,
			APIURL:                 cfg.APIURL,
			GraphQLURL:             cfg.GraphQLURL,
		}, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}

		if err := resolveOwner(ctx, githubGateway, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		location, err := cfg.Location()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		gov := governor.New(githubGateway, logger, governor.Options{
			Interruptible: cfg.InterruptibleWait,
			Location:      location,
			Progress:      os.Stderr,
		})
		exporter := usecase.NewExporter(githubGateway, gov, sink.NewCSVSink(cfg.OutputPath), usecase.Options{
			Owner:        cfg.Owner,
			Window:       cfg.Window(),
			ExcludedRepo: cfg.ExcludedRepo,
			OutputPath:   cfg.OutputPath,
		}, logger)

		summary, err := exporter.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to export activity: %v\n", err)
			os.Exit(1)
		}
		usecase.LogSummary(logger, summary)

		fmt.Fprintf(cmd.OutOrStdout(), "Data successfully written to %s\n", cfg.OutputPath)
	},
}

// resolveOwner fills in the owner from the token when no user was configured.
// A configured user never triggers the lookup.
func resolveOwner(ctx context.Context, resolver gateway.ViewerResolver, cfg *config.Config) error {
	if cfg.Owner != "" {
		return nil
	}
	owner, err := resolver.ResolveViewer(ctx)
	if err != nil {
		return fmt.Errorf("failed to determine GitHub user, set --user or %s: %w", config.UsernameEnv, err)
	}
	cfg.Owner = owner
	return nil
}

// applyFlags overrides the environment configuration with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	since, _ := flags.GetString("since")
	if err := cfg.SetSince(since); err != nil {
		return err
	}
	if flags.Changed("user") {
		cfg.Owner, _ = flags.GetString("user")
	}
	if flags.Changed("timezone") {
		cfg.Timezone, _ = flags.GetString("timezone")
	}
	if flags.Changed("exclude") {
		cfg.ExcludedRepo, _ = flags.GetString("exclude")
	}
	if flags.Changed("output") {
		cfg.OutputPath, _ = flags.GetString("output")
	}
	cfg.InterruptibleWait, _ = flags.GetBool("interruptible-wait")
	cfg.SecondaryRateLimitWait, _ = flags.GetDuration("secondary-wait")
	cfg.APIURL, _ = flags.GetString("api-url")
	cfg.GraphQLURL, _ = flags.GetString("graphql-url")
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	addExportFlags(exportCmd)
}

func addExportFlags(c *cobra.Command) {
	c.Flags().StringP("since", "s", "", "Start date for fetching activity (YYYY-MM-DD)")
	c.Flags().StringP("user", "u", "", "GitHub user name (default: "+config.UsernameEnv+" or the token's owner)")
	c.Flags().String("timezone", config.DefaultTimezone, "Timezone used to display the rate limit reset time")
	c.Flags().String("exclude", "", "Name of a repository to skip")
	c.Flags().StringP("output", "o", config.DefaultOutput, "CSV output file")
	c.Flags().Bool("interruptible-wait", true, "Allow Ctrl-C to abort the rate limit wait")
	c.Flags().Duration("secondary-wait", 0, "Sleep limit for secondary rate limits (0 disables waiting)")
	c.Flags().String("api-url", "", "GitHub REST API base URL (GitHub Enterprise)")
	c.Flags().String("graphql-url", "", "GitHub GraphQL API URL (GitHub Enterprise)")
}
