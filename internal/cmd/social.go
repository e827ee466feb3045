package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"socialite/internal/core"
	"socialite/internal/directory"
	"socialite/internal/engagement"
	"socialite/internal/graph"
)

var postCmd = &cli.Command{
	Name:      "post",
	Usage:     "Publish a post as the acting user",
	ArgsUsage: "<content>",
	Flags:     append(storeFlags, actorFlags...),
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, services, err := baseServices(c)
		if err != nil {
			return err
		}
		return run(ctx, cfg, append(services, pal.Provide(&poster{content: c.Args().First()}))...)
	},
}

var likeCmd = &cli.Command{
	Name:      "like",
	Usage:     "Toggle the acting user's like on a post",
	ArgsUsage: "<post-id>",
	Flags:     append(storeFlags, actorFlags...),
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, services, err := baseServices(c)
		if err != nil {
			return err
		}
		return run(ctx, cfg, append(services, pal.Provide(&liker{postID: c.Args().First()}))...)
	},
}

var commentCmd = &cli.Command{
	Name:      "comment",
	Usage:     "Comment on a post as the acting user",
	ArgsUsage: "<post-id> <text>",
	Flags:     append(storeFlags, actorFlags...),
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, services, err := baseServices(c)
		if err != nil {
			return err
		}
		return run(ctx, cfg, append(services, pal.Provide(&commenter{
			postID: c.Args().Get(0),
			text:   c.Args().Get(1),
		}))...)
	},
}

var followCmd = &cli.Command{
	Name:      "follow",
	Usage:     "Toggle the acting user's follow of another user",
	ArgsUsage: "<user-id>",
	Flags:     append(storeFlags, actorFlags...),
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, services, err := baseServices(c)
		if err != nil {
			return err
		}
		return run(ctx, cfg, append(services, pal.Provide(&follower{targetID: c.Args().First()}))...)
	},
}

var searchCmd = &cli.Command{
	Name:      "search",
	Usage:     "Search users by display name prefix",
	ArgsUsage: "<prefix>",
	Flags:     storeFlags,
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, services, err := baseServices(c)
		if err != nil {
			return err
		}
		return run(ctx, cfg, append(services, pal.Provide(&searcher{prefix: c.Args().First()}))...)
	},
}

type poster struct {
	Logger     *slog.Logger
	Auth       core.AuthProvider
	Engagement *engagement.Manager

	content string
}

func (p *poster) Run(ctx context.Context) error {
	id, err := p.Engagement.CreatePost(ctx, p.Auth.Current(), p.content)
	if err != nil {
		return err
	}
	p.Logger.Info("post published", "post", id)
	return nil
}

type liker struct {
	Logger     *slog.Logger
	Auth       core.AuthProvider
	Engagement *engagement.Manager

	postID string
}

func (l *liker) Run(ctx context.Context) error {
	post, err := l.Engagement.GetPost(ctx, l.postID)
	if err != nil {
		return err
	}

	liked, err := l.Engagement.ToggleLike(ctx, l.postID, l.Auth.Current().UserID, post.LikedBy)
	if err != nil {
		return err
	}
	l.Logger.Info("like toggled", "post", l.postID, "liked", liked)
	return nil
}

type commenter struct {
	Logger     *slog.Logger
	Auth       core.AuthProvider
	Engagement *engagement.Manager

	postID string
	text   string
}

func (c *commenter) Run(ctx context.Context) error {
	if err := c.Engagement.AddComment(ctx, c.postID, c.Auth.Current(), c.text); err != nil {
		return err
	}
	c.Logger.Info("comment added", "post", c.postID)
	return nil
}

type follower struct {
	Logger *slog.Logger
	Auth   core.AuthProvider
	Graph  *graph.Manager

	targetID string
}

func (f *follower) Run(ctx context.Context) error {
	following, err := f.Graph.ToggleFollow(ctx, f.Auth.Current().UserID, f.targetID)
	if err != nil {
		return err
	}
	f.Logger.Info("follow toggled", "target", f.targetID, "following", following)
	return nil
}

type searcher struct {
	Logger    *slog.Logger
	Directory *directory.Directory

	prefix string
}

func (s *searcher) Run(ctx context.Context) error {
	users, err := s.Directory.SearchByDisplayNamePrefix(ctx, s.prefix)
	if err != nil {
		return err
	}

	for _, user := range users {
		fmt.Printf("%s\t%s\n", user.UserID, user.DisplayName)
	}
	s.Logger.Info("search finished", "prefix", s.prefix, "hits", len(users))
	return nil
}
