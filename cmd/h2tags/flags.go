package main

import "github.com/urfave/cli/v3"

var (
	mapPath    string
	mapsDir    string
	sharedMaps []string
	workers    int
	logLevel   string
	logFormat  string
	debug      bool
)

func mapFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "map",
			Aliases:     []string{"m"},
			Usage:       "path to .map file",
			Destination: &mapPath,
		},
		&cli.StringFlag{
			Name:        "maps-dir",
			Aliases:     []string{"dir"},
			Usage:       "directory containing .map files",
			Destination: &mapsDir,
		},
		&cli.StringSliceFlag{
			Name:        "shared",
			Usage:       "shared data file as kind=path (mainmenu, shared, single_player_shared); repeatable",
			Destination: &sharedMaps,
		},
		&cli.IntFlag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "materialization workers (0 = GOMAXPROCS)",
			Destination: &workers,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (auto, pretty, json, text)",
			Value:       "auto",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
