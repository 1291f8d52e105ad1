package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"minifeed/internal/model"
	"minifeed/internal/thread"

	"github.com/spf13/cobra"
)

func newTreeCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tree [file]",
		Short: "Build a reply forest from a JSON array of comments",
		Long:  "Reads a JSON array of comments from file, or from stdin when no file is given, and prints the reply forest.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return runTree(in, cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the forest as JSON")
	return cmd
}

func runTree(in io.Reader, out io.Writer, asJSON bool) error {
	var comments []model.Comment
	if err := json.NewDecoder(in).Decode(&comments); err != nil {
		return fmt.Errorf("decode comments: %w", err)
	}

	roots, stats := thread.Build(comments)

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(roots)
	}

	printForest(out, roots)
	fmt.Fprintf(out, "\n%d comments, %d roots\n", stats.Total, stats.Roots)
	printAnomalies(out, "orphans", stats.Orphans)
	printAnomalies(out, "self references", stats.SelfReferences)
	printAnomalies(out, "cycles", stats.Cycles)
	printAnomalies(out, "duplicates", stats.Duplicates)
	return nil
}

func printAnomalies(out io.Writer, kind string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(out, "%s: %v\n", kind, ids)
}

func printForest(out io.Writer, forest []*model.CommentNode) {
	thread.Walk(forest, func(n *model.CommentNode, depth int) {
		for i := 0; i < depth; i++ {
			io.WriteString(out, "  ")
		}
		fmt.Fprintf(out, "- [%s] %s", n.ID, n.Text)
		if n.Image != "" {
			fmt.Fprintf(out, " (image: %s)", n.Image)
		}
		if n.GIF != "" {
			fmt.Fprintf(out, " (gif: %s)", n.GIF)
		}
		io.WriteString(out, "\n")
	})
}
