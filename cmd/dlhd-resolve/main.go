// Package main implements dlhd-resolve, a command-line front end to the
// resolution pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"dlhd-resolver/internal/app"
	"dlhd-resolver/pkg/config"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/probe"
	"dlhd-resolver/pkg/services"
	"dlhd-resolver/pkg/types"
)

var (
	jsonOutput bool
	logLevel   string
	siteURL    string
	probeLink  bool
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "Log level written to stderr (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&siteURL, "site", "", "Override the primary site URL")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("log-level", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	}))

	resolveCmd.Flags().BoolVarP(&probeLink, "probe", "p", false, "Fetch the resolved playlist with its headers and report what it serves")

	rootCmd.AddCommand(resolveCmd, eventCmd, channelsCmd, searchCmd)
}

var rootCmd = &cobra.Command{
	Use:           "dlhd-resolve",
	Short:         "Resolve DaddyLive stream pages into playable HLS links",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <reference>",
	Short: "Resolve a stream reference such as /stream/stream-51.php",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd, func(ctx context.Context, p *app.Pipeline) error {
			link, err := p.Service.ResolveReference(ctx, "", args[0])
			if err != nil {
				return err
			}
			if probeLink {
				return printProbe(ctx, cmd.OutOrStdout(), p, link)
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), link)
			}
			fmt.Fprintln(cmd.OutOrStdout(), link.Encoded)
			return nil
		})
	},
}

var eventCmd = &cobra.Command{
	Use:   "event <title>",
	Short: "Resolve every channel broadcasting the matching events",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd, func(ctx context.Context, p *app.Pipeline) error {
			links, err := p.Service.ResolveEvent(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(links) == 0 {
				return services.ErrNoLinks
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), links)
			}
			for _, link := range links {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", link.Label, link.Encoded)
			}
			return nil
		})
	},
}

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the 24/7 channels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd, func(ctx context.Context, p *app.Pipeline) error {
			channels, err := p.Catalog.Channels(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), channels)
			}
			printChannels(cmd.OutOrStdout(), channels)
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search scheduled events and channels",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPipeline(cmd, func(ctx context.Context, p *app.Pipeline) error {
			result, err := p.Catalog.Search(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), result)
			}
			out := cmd.OutOrStdout()
			for _, ev := range result.Events {
				fmt.Fprintf(out, "%s %s\t%s\t%s\n", ev.Date, ev.Time, ev.Category, ev.Title)
			}
			printChannels(out, result.Channels)
			return nil
		})
	},
}

// withPipeline builds the pipeline from the environment plus flags and
// runs fn with a context canceled on SIGINT or SIGTERM.
func withPipeline(cmd *cobra.Command, fn func(context.Context, *app.Pipeline) error) error {
	cfg := config.Load()
	if siteURL != "" {
		cfg.PrimaryURL = strings.TrimRight(siteURL, "/")
	}
	log := logging.New(logLevel, false, cmd.ErrOrStderr())

	p, err := app.NewPipeline(cfg, log)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, p)
}

func printProbe(ctx context.Context, w io.Writer, p *app.Pipeline, link *types.PlaybackLink) error {
	result, err := p.Prober.Probe(ctx, link.URL, link.Headers)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(w, map[string]any{"link": link, "probe": result})
	}
	fmt.Fprintln(w, link.Encoded)
	if !result.Playable() {
		return fmt.Errorf("playlist returned status %d", result.StatusCode)
	}
	fmt.Fprintf(w, "%s playlist, status %d, live=%t\n", result.Kind, result.StatusCode, result.Live)
	for _, v := range result.Variants {
		fmt.Fprintf(w, "  %d\t%s\t%s\n", v.Bandwidth, v.Resolution, v.URL)
	}
	if result.Kind == probe.KindMedia {
		fmt.Fprintf(w, "  %d segments, target duration %.0fs\n", result.Segments, result.TargetDuration)
	}
	return nil
}

func printChannels(w io.Writer, channels []types.Channel) {
	for _, ch := range channels {
		fmt.Fprintf(w, "%s\t%s\n", ch.Name, ch.Reference)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
