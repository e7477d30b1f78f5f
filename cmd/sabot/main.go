// Sabot CLI - serves the stabilizer circuit simulator over ZeroMQ.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"

	"github.com/chazu/sabot/actions"
	"github.com/chazu/sabot/net"
	"github.com/chazu/sabot/universe"
)

// fileConfig mirrors the TOML config file. Command-line flags win
// over file values.
type fileConfig struct {
	Endpoint string  `toml:"endpoint"`
	Threads  int     `toml:"threads"`
	Seed     *uint64 `toml:"seed"`
}

func main() {
	app := &cli.App{
		Name:  "sabot",
		Usage: "stabilizer circuit simulation service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "endpoint",
				Aliases: []string{"e"},
				Usage:   "ZeroMQ endpoint to bind, e.g. tcp://*:5555",
			},
			&cli.IntFlag{
				Name:    "thread",
				Aliases: []string{"t"},
				Value:   1,
				Usage:   "number of worker threads",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML configuration file",
			},
			&cli.Uint64Flag{
				Name:    "seed",
				Aliases: []string{"s"},
				Usage:   "fixed random seed",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Count:   new(int),
				Usage:   "increase log verbosity, repeatable",
			},
		},
		Action: serve,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	config, err := resolveConfig(c)
	if err != nil {
		return err
	}

	commonlog.Configure(c.Count("verbose"), nil)
	log := commonlog.GetLogger("sabot")

	u, err := universe.New(universe.Config{Seed: config.Seed})
	if err != nil {
		return err
	}
	dispatch, err := actions.NewDispatcher(u)
	if err != nil {
		return err
	}

	server := net.NewServer(config.Endpoint, dispatch)
	if err := server.Listen(config.Threads); err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	received := <-signals
	log.Infof("received %s, shutting down", received)

	return server.Stop()
}

// resolveConfig merges the config file with command-line flags.
func resolveConfig(c *cli.Context) (*fileConfig, error) {
	config := &fileConfig{Threads: 1}

	if path := c.String("config"); path != "" {
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if c.IsSet("endpoint") {
		config.Endpoint = c.String("endpoint")
	}
	if c.IsSet("thread") {
		config.Threads = c.Int("thread")
	}
	if c.IsSet("seed") {
		seed := c.Uint64("seed")
		config.Seed = &seed
	}

	if config.Endpoint == "" {
		return nil, fmt.Errorf("an endpoint is required, pass --endpoint or set one in the config file")
	}
	return config, nil
}
