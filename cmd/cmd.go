// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// playerFlags are shared by every command that talks to the player.
func playerFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
		},
		&cli.StringFlag{
			Name:    "url",
			Usage:   "Base URL of the player API (overrides player.base_url)",
			Sources: cli.EnvVars("SIGNCTL_URL"),
		},
	}, extra...)
}

func outputFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   usage,
	}
}

func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "Show the playlist in playback order",
		Flags: playerFlags(
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, json, csv, m3u)",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON (same as --format json)",
			},
			outputFlag("Write the listing to a file"),
		),
		Action: r.List,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show what the player is playing",
		Flags: playerFlags(
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		),
		Action: r.Status,
	}
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Poll playback status and print every change",
		Flags: playerFlags(
			&cli.DurationFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Polling interval (defaults to poller.interval)",
			},
			&cli.DurationFlag{
				Name:    "duration",
				Aliases: []string{"d"},
				Usage:   "Stop after this long (0 runs until interrupted)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (defaults to metrics.addr)",
			},
		),
		Action: r.Watch,
	}
}

func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload media files one at a time",
		ArgsUsage: "FILE...",
		Flags:     playerFlags(),
		Action:    r.Upload,
	}
}

func deleteCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "delete",
		Aliases: []string{"rm"},
		Usage:   "Remove a media file from the player",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "name",
				UsageText: "Media file name",
			},
		},
		Flags:  playerFlags(),
		Action: r.Delete,
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Switch playback to a media file now",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "name",
				UsageText: "Media file name",
			},
		},
		Flags:  playerFlags(),
		Action: r.Play,
	}
}

func moveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "move",
		Aliases:   []string{"mv"},
		Usage:     "Move the entry at position FROM to position TO (1-based)",
		ArgsUsage: "FROM TO",
		Flags:     playerFlags(),
		Action:    r.Move,
	}
}

func orderCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "order",
		Usage:     "Replace the playback order; every file must be named exactly once",
		ArgsUsage: "NAME...",
		Flags:     playerFlags(),
		Action:    r.Order,
	}
}

func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Save the original of a media file",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "name",
				UsageText: "Media file name",
			},
		},
		Flags:  playerFlags(outputFlag("Destination path (defaults to the file name)")),
		Action: r.Download,
	}
}

func thumbnailCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "thumbnail",
		Aliases: []string{"thumb"},
		Usage:   "Preview a media file's thumbnail as a colour swatch",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "name",
				UsageText: "Media file name",
			},
		},
		Flags:  playerFlags(outputFlag("Save the image bytes instead of previewing")),
		Action: r.Thumbnail,
	}
}

func m3uCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "m3u",
		Usage:  "Print the player's M3U playlist",
		Flags:  playerFlags(outputFlag("Write the playlist to a file")),
		Action: r.M3U,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Launch the interactive playlist controller",
		Flags:  playerFlags(),
		Action: r.TUI,
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize local files",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}
