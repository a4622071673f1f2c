package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/tipsbot/internal/content"
)

// IndexCommand builds the content index the server searches.
func IndexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Manage the content index",
		Subcommands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Scan content files and write the index JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Directory holding the content files, defaults to content.root",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Index file to write, defaults to content.index_path",
					},
				},
				Action: runIndexBuild,
			},
		},
	}
}

func runIndexBuild(c *cli.Context) error {
	cfg, logger, err := loadRuntime(c)
	if err != nil {
		return err
	}

	dir := c.String("dir")
	if dir == "" {
		dir = cfg.Content.Root
	}
	output := c.String("output")
	if output == "" {
		output = cfg.Content.IndexPath
	}

	idx, err := content.BuildIndex(os.DirFS(dir), cfg.Content.Ext, logger)
	if err != nil {
		return err
	}

	// Write next to the target and rename so a watching server never reads
	// a half written file.
	tmp, err := os.CreateTemp(filepath.Dir(output), ".index-*.json")
	if err != nil {
		return fmt.Errorf("failed to create index file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := content.WriteIndex(tmp, idx); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), output); err != nil {
		return fmt.Errorf("failed to move index into place: %w", err)
	}

	fmt.Printf("Indexed %d entries under %d tags into %s\n", idx.Len(), len(idx.Tags()), output)
	return nil
}
