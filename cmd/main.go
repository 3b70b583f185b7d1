package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"rootstofarm.com/market/go-api/internal/router"
)

func main() {
	app := &cli.App{
		Name:    "market-api",
		Usage:   "Roots to Farm marketplace API",
		Version: router.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Value:   ".env",
				Usage:   "dotenv file loaded before the environment",
				EnvVars: []string{"ENV_FILE"},
			},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "memory",
						Usage: "keep all data in process memory instead of MongoDB",
					},
				},
				Action: serve,
			},
			{
				Name:   "ensure-indexes",
				Usage:  "create the MongoDB indexes and exit",
				Action: ensureIndexes,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("market-api stopped")
	}
}
