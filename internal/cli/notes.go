package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/superclaude/superclaude/internal/rpc"
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Browse the configured Obsidian vault",
}

var notesListCmd = &cobra.Command{
	Use:   "list [folder]",
	Short: "List notes in the vault",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := ""
		if len(args) == 1 {
			folder = args[0]
		}
		return withClient(func(ctx context.Context, c *rpc.Client) error {
			resp, err := c.ListObsidianNotes(ctx, &rpc.ListObsidianNotesRequest{Folder: folder})
			if err != nil {
				return err
			}
			if len(resp.Notes) == 0 {
				fmt.Println("No notes.")
				return nil
			}
			for _, n := range resp.Notes {
				tags := ""
				if len(n.Tags) > 0 {
					tags = styleHint.Render(" #" + strings.Join(n.Tags, " #"))
				}
				fmt.Printf("%s  %s%s\n", styleCommand.Render(n.RelativePath), n.Title, tags)
			}
			return nil
		})
	},
}

var notesShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *rpc.Client) error {
			note, err := c.GetObsidianNote(ctx, &rpc.GetObsidianNoteRequest{RelativePath: args[0]})
			if err != nil {
				return err
			}
			fmt.Println(styleBrand.Render(note.Title))
			fmt.Println(styleHint.Render(note.RelativePath))
			fmt.Println()
			fmt.Println(note.Content)
			return nil
		})
	},
}

func init() {
	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesShowCmd)
}
