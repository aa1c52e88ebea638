package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"murmur/internal/memory"
)

func newMemoriesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "Browse and manage stored memories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newMemoriesListCommand(ctx))
	cmd.AddCommand(newMemoriesShowCommand(ctx))
	cmd.AddCommand(newMemoriesPinCommand(ctx))
	cmd.AddCommand(newMemoriesDoneCommand(ctx))
	cmd.AddCommand(newMemoriesRemoveCommand(ctx))
	return cmd
}

// withStore runs fn against the opened memory store and reports any
// persistence advisory afterwards.
func withStore(ctx *commandContext, cmd *cobra.Command, fn func(store *memory.Store) error) error {
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

	if err := fn(store); err != nil {
		return err
	}
	if advisory := store.LastError(); advisory != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Warning: %s\n", advisory)
	}
	return nil
}

func newMemoriesListCommand(ctx *commandContext) *cobra.Command {
	var categoryFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories, pinned first, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, cmd, func(store *memory.Store) error {
				memories := store.List()

				rows := make([][]string, 0, len(memories))
				for _, m := range memories {
					if categoryFlag != "" && m.Category != categoryFlag {
						continue
					}
					pinned := ""
					if m.Pinned {
						pinned = "pinned"
					}
					items := ""
					if len(m.ActionItems) > 0 {
						items = fmt.Sprintf("%d/%d", len(m.CompletedItems), len(m.ActionItems))
					}
					rows = append(rows, []string{
						shortID(m.ID),
						pinned,
						m.Title,
						m.Category,
						m.Mood,
						items,
						m.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}

				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No memories yet. Run \"murmur capture\" to record one.")
					return nil
				}

				headers := []string{"ID", "", "TITLE", "CATEGORY", "MOOD", "ITEMS", "CREATED"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&categoryFlag, "category", "", "Only list memories in this category")
	return cmd
}

func newMemoriesShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one memory in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, cmd, func(store *memory.Store) error {
				id, err := resolveMemoryID(store, args[0])
				if err != nil {
					return err
				}
				m, _ := store.Get(id)
				printMemory(cmd.OutOrStdout(), m)
				return nil
			})
		},
	}
}

func newMemoriesPinCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pin <id>",
		Short: "Toggle a memory's pinned state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, cmd, func(store *memory.Store) error {
				id, err := resolveMemoryID(store, args[0])
				if err != nil {
					return err
				}
				store.TogglePin(cmd.Context(), id)
				m, _ := store.Get(id)
				if m.Pinned {
					fmt.Fprintf(cmd.OutOrStdout(), "Pinned %q.\n", m.Title)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Unpinned %q.\n", m.Title)
				}
				return nil
			})
		},
	}
}

func newMemoriesDoneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id> <item>",
		Short: "Toggle an action item's completed state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, cmd, func(store *memory.Store) error {
				id, err := resolveMemoryID(store, args[0])
				if err != nil {
					return err
				}
				index, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("action item index must be a number: %q", args[1])
				}
				m, _ := store.Get(id)
				if index < 0 || index >= len(m.ActionItems) {
					return fmt.Errorf("memory %q has no action item %d", shortID(id), index)
				}
				store.ToggleActionItem(cmd.Context(), id, index)
				updated, _ := store.Get(id)
				printMemory(cmd.OutOrStdout(), updated)
				return nil
			})
		},
	}
}

func newMemoriesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a memory",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(ctx, cmd, func(store *memory.Store) error {
				id, err := resolveMemoryID(store, args[0])
				if err != nil {
					return err
				}
				m, _ := store.Get(id)
				store.Remove(cmd.Context(), id)
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %q.\n", m.Title)
				return nil
			})
		},
	}
}
