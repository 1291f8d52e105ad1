package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"minifeed/internal/adapter/out/feedapi"
	"minifeed/internal/model"
	"minifeed/internal/thread"
	"minifeed/pkg/logger"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const threadHelp = `commands:
  comment <text>           add a top-level comment
  reply <parentId> <text>  reply to a comment
  view <postId>            switch to another post
  tree                     print the thread again
  quit`

func newThreadCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "thread <postId>",
		Short: "Follow the comment thread of a post interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := feedapi.NewClient(apiURL)
			return runThread(cmd.Context(), client, args[0], cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "base URL of the minifeed API")
	return cmd
}

type threadClient interface {
	thread.CommentLister
	CreateComment(ctx context.Context, in feedapi.CreateComment) (model.Comment, error)
}

type threadSession struct {
	client threadClient
	agg    *thread.Aggregator
	out    io.Writer
}

func runThread(ctx context.Context, client threadClient, postID string, in io.Reader, out io.Writer) error {
	s := &threadSession{client: client, out: out}
	s.agg = thread.NewAggregator(client,
		thread.WithLogger(logger.FromContext(ctx)),
		thread.WithCountObserver(func(postID string, count int) {
			fmt.Fprintf(out, "post %s: %d comments\n", postID, count)
		}),
		thread.WithRenderer(func(_ string, forest []*model.CommentNode) {
			printForest(out, forest)
		}),
	)

	if err := s.view(ctx, postID); err != nil {
		return err
	}
	fmt.Fprintln(out, threadHelp)

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			break
		}
		quit, err := s.handle(ctx, strings.TrimSpace(sc.Text()))
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return sc.Err()
}

func (s *threadSession) handle(ctx context.Context, line string) (bool, error) {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "tree":
		printForest(s.out, s.agg.Forest())
		return false, nil
	case "view":
		if rest == "" {
			return false, errors.New("usage: view <postId>")
		}
		return false, s.view(ctx, rest)
	case "comment":
		return false, s.submit(ctx, nil, rest)
	case "reply":
		parentID, text, _ := strings.Cut(rest, " ")
		if parentID == "" {
			return false, errors.New("usage: reply <parentId> <text>")
		}
		return false, s.submit(ctx, &parentID, strings.TrimSpace(text))
	default:
		fmt.Fprintln(s.out, threadHelp)
		return false, nil
	}
}

func (s *threadSession) view(ctx context.Context, postID string) error {
	_, err := s.agg.Initialize(ctx, postID)
	if errors.Is(err, thread.ErrStale) {
		return nil
	}
	return err
}

// submit creates a comment and merges the stored record. A transport failure
// is retried once with the same idempotency key, so the server stores at most
// one comment per submission.
func (s *threadSession) submit(ctx context.Context, parentID *string, text string) error {
	req := feedapi.CreateComment{
		PostID:         s.agg.PostID(),
		ParentID:       parentID,
		Text:           text,
		IdempotencyKey: uuid.NewString(),
	}

	c, err := s.client.CreateComment(ctx, req)
	if errors.Is(err, feedapi.ErrTransport) {
		logger.FromContext(ctx).Warn("retrying comment submission", "error", err)
		c, err = s.client.CreateComment(ctx, req)
	}
	if err != nil {
		return err
	}

	s.agg.AppendLocal(c)
	return nil
}
