package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pevans/tally/handoff"
	"github.com/spf13/cobra"
)

func newMessagesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Inspect result messages in the handoff directory",
	}

	openDir := func() (*handoff.Dir, error) {
		return handoff.NewDir(a.cfg.Storage.Handoff.Dir)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List messages, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := openDir()
			if err != nil {
				return err
			}
			result, err := dir.List()
			if err != nil {
				return err
			}

			for _, readErr := range result.Errors {
				a.logger.Warn("skipped unreadable message", "file", readErr.Filename, "error", readErr.Err)
			}

			if a.json() {
				return printJSON(cmd.OutOrStdout(), result.Messages)
			}
			printMessages(cmd.OutOrStdout(), result.Messages)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one message as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid message ID: %w", err)
			}
			dir, err := openDir()
			if err != nil {
				return err
			}
			msg, err := dir.Get(id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), msg)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid message ID: %w", err)
			}
			dir, err := openDir()
			if err != nil {
				return err
			}
			if err := dir.Delete(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted message %s\n", id)
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}
