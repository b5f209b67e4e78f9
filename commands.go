package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hbomb79/Reel/internal"
	"github.com/hbomb79/Reel/internal/media"
	"github.com/hbomb79/Reel/pkg/logger"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

// bootstrap loads the configuration named by the command's flags
// and constructs Reel from it.
func bootstrap(cmd *cli.Command) (*internal.Reel, error) {
	config, err := internal.LoadConfig(cmd.String("config"), cmd.String("env"))
	if err != nil {
		return nil, err
	}
	if err := config.ApplyLogLevel(); err != nil {
		return nil, err
	}

	return internal.New(*config)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	reel, err := bootstrap(cmd)
	if err != nil {
		return err
	}

	return reel.Run(ctx)
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("a search query is required")
	}

	reel, err := bootstrap(cmd)
	if err != nil {
		return err
	}

	entries, err := reel.Search().Search(ctx, query)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No results")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Title", "Duration", "Views")
	for _, entry := range entries {
		if err := table.Append(entry.ID, entry.Title, formatDuration(entry.DurationSeconds), strconv.FormatInt(entry.ViewCount, 10)); err != nil {
			return err
		}
	}

	return table.Render()
}

func fetchAction(ctx context.Context, cmd *cli.Command) error {
	profile, err := media.ParseProfile(cmd.String("profile"))
	if err != nil {
		return err
	}

	reel, err := bootstrap(cmd)
	if err != nil {
		return err
	}

	artifact, err := reel.Fetch().Fetch(ctx, media.FetchRequest{
		ID:      cmd.String("id"),
		Profile: profile,
		Title:   cmd.String("title"),
	})
	if err != nil {
		return err
	}

	target := filepath.Join(cmd.String("out"), artifact.Filename)
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, artifact.Body); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}

	log.Emit(logger.SUCCESS, "Saved %s (%s)\n", target, artifact.ContentType)
	return nil
}

func formatDuration(seconds int) string {
	if seconds >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
	}

	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
