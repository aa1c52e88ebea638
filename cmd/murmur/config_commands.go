package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"murmur/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and scaffold configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newConfigShowCommand(ctx))
	cmd.AddCommand(newConfigInitCommand())
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Config file: %s\n\n", ctx.configPath)
			fmt.Fprintf(out, "data_dir:   %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(out, "log_dir:    %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "api_bind:   %s\n", cfg.Paths.APIBind)
			fmt.Fprintf(out, "api_token:  %s\n", maskSecret(cfg.Paths.APIToken))
			fmt.Fprintln(out)
			fmt.Fprintf(out, "client.base_url:        %s\n", cfg.Client.BaseURL)
			fmt.Fprintf(out, "client.timeout_seconds: %d\n", cfg.Client.TimeoutSeconds)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "openai.api_key:              %s\n", maskSecret(cfg.OpenAI.APIKey))
			fmt.Fprintf(out, "openai.base_url:             %s\n", cfg.OpenAI.BaseURL)
			fmt.Fprintf(out, "openai.transcription_models: %s\n", strings.Join(cfg.TranscriptionCandidates(), ", "))
			fmt.Fprintf(out, "openai.structuring_models:   %s\n", strings.Join(cfg.StructuringCandidates(), ", "))
			fmt.Fprintln(out)
			fmt.Fprintf(out, "capture.input_device:               %s\n", orDefault(cfg.Capture.InputDevice, "(platform default)"))
			fmt.Fprintf(out, "capture.max_recording_seconds:      %d\n", cfg.Capture.MaxRecordingSeconds)
			fmt.Fprintf(out, "capture.processing_timeout_seconds: %d\n", cfg.Capture.ProcessingTimeoutSeconds)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "storage.backend: %s\n", cfg.Storage.Backend)
			fmt.Fprintf(out, "logging:         %s, %s\n", cfg.Logging.Level, cfg.Logging.Format)
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !forceFlag {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing config file")
	return cmd
}

func maskSecret(value string) string {
	if value == "" {
		return "(unset)"
	}
	if len(value) <= 6 {
		return "******"
	}
	return value[:3] + "..." + value[len(value)-2:]
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
