package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"murmur/internal/capture"
	"murmur/internal/client"
	"murmur/internal/deps"
	"murmur/internal/memory"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "capture",
		Short: "Record a voice memo and turn it into a memory",
		Long:  "Records from the microphone, sends the audio to the processing server, and stores the structured memory locally.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			store, closeStore, err := openMemoryStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			if missing := deps.MissingRequired(deps.CheckBinaries(deps.Requirements(cfg))); len(missing) > 0 {
				return fmt.Errorf("%s is required for recording: %s", missing[0].Name, missing[0].Detail)
			}

			apiClient, err := client.New(cfg)
			if err != nil {
				return err
			}

			backend := capture.NewFFmpegBackend(cfg.FFmpegBinary(), cfg.Capture.InputDevice)
			recorder := capture.NewRecorder(backend, "")
			controller := capture.NewController(
				recorder,
				apiClient,
				store,
				time.Duration(cfg.Capture.MaxRecordingSeconds)*time.Second,
				time.Duration(cfg.Capture.ProcessingTimeoutSeconds)*time.Second,
				logger,
			)
			defer controller.Teardown()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := controller.Start(runCtx); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recording... press Enter to stop (auto-stops after %ds).\n", cfg.Capture.MaxRecordingSeconds)

			go func() {
				reader := bufio.NewReader(os.Stdin)
				_, _ = reader.ReadString('\n')
				controller.Stop()
			}()

			id, err := controller.Wait(runCtx)
			if err != nil {
				if runCtx.Err() != nil {
					controller.Teardown()
					fmt.Fprintln(out, "Recording discarded.")
					return nil
				}
				return err
			}

			fmt.Fprintln(out, "Processing complete.")
			if m, ok := store.Get(id); ok {
				printMemory(out, m)
			}
			if advisory := store.LastError(); advisory != "" {
				fmt.Fprintf(out, "Warning: %s\n", advisory)
			}
			return nil
		},
	}
}

func printMemory(out io.Writer, m memory.Memory) {
	fmt.Fprintf(out, "\n%s  [%s]\n", m.Title, shortID(m.ID))
	fmt.Fprintf(out, "Category: %s    Mood: %s    Created: %s\n",
		m.Category, m.Mood, m.CreatedAt.Local().Format("2006-01-02 15:04"))
	if m.Pinned {
		fmt.Fprintln(out, "Pinned")
	}
	if len(m.ActionItems) > 0 {
		fmt.Fprintln(out, "Action items:")
		completed := make(map[int]struct{}, len(m.CompletedItems))
		for _, idx := range m.CompletedItems {
			completed[idx] = struct{}{}
		}
		for i, item := range m.ActionItems {
			marker := " "
			if _, done := completed[i]; done {
				marker = "x"
			}
			fmt.Fprintf(out, "  [%s] %d. %s\n", marker, i, item)
		}
	}
	if strings.TrimSpace(m.Transcript) != "" {
		fmt.Fprintf(out, "Transcript: %s\n", m.Transcript)
	}
}
