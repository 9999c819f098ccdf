package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"CityPodcast/internal/app"
	"CityPodcast/internal/cities"
	"CityPodcast/internal/config"
	"CityPodcast/internal/domain"
	"CityPodcast/internal/logging"
)

type rootOptions struct {
	configPath string
}

func (o *rootOptions) loadConfig() config.Config {
	path := o.configPath
	if path == "" {
		path = os.Getenv(config.ConfigPathEnv)
	}
	return config.LoadFile(path)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "citypodcast",
		Short:        "Local news radio podcasts for US cities",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (default $"+config.ConfigPathEnv+")")
	cmd.AddCommand(
		newServeCmd(opts),
		newGenerateCmd(opts),
		newCitiesCmd(),
	)
	return cmd
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run scheduled podcasts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfg := opts.loadConfig()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		return err
	}
	return nil
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var city, voice string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one podcast episode now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.loadConfig()
			application, err := app.New(cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format))
			if err != nil {
				return err
			}

			ep, err := application.Pipeline().Run(cmd.Context(), domain.Request{
				City:    city,
				VoiceID: voice,
				Mode:    domain.ModeInteractive,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ep.Script)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "audio: %s (%d bytes)\n", ep.Audio.Path, ep.Audio.Size)
			return nil
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "City to cover")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice alias or ElevenLabs voice id")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}

func newCitiesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "cities <query>",
		Short: "Search supported city names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range cities.Default().Search(args[0], limit) {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", cities.DefaultLimit, "Maximum number of results")
	return cmd
}
