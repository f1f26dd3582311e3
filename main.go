// Command sokoban starts the Sokoban game server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Every flag can also be set from the environment or a .env file.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Sokoban Server"
)

// config is the resolved command line configuration.
type config struct {
	addr        string
	levelsDir   string
	sessionsDir string
	redisURL    string
	sessionTTL  time.Duration
	autoAdvance bool
	debug       bool

	ngrokEnabled bool
	ngrokToken   string
	ngrokDomain  string
}

// runFunc starts a mode with the resolved configuration.
type runFunc func(ctx context.Context, cfg config, logger *log.Logger) error

func newCommand(serve, stdio runFunc) *cli.Command {
	return &cli.Command{
		Name:    "sokoban",
		Usage:   "Sokoban over REST, WebSocket and MCP",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   "localhost:8080",
				Usage:   "HTTP listen address",
				Sources: cli.EnvVars("SOKOBAN_ADDR"),
			},
			&cli.StringFlag{
				Name:    "levels-dir",
				Usage:   "directory of levelN.txt files (embedded levels when empty)",
				Sources: cli.EnvVars("SOKOBAN_LEVELS_DIR"),
			},
			&cli.StringFlag{
				Name:    "sessions-dir",
				Value:   "sessions",
				Usage:   "directory for session files (in-memory only when empty)",
				Sources: cli.EnvVars("SOKOBAN_SESSIONS_DIR"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "store sessions in Redis instead of files (redis://host:port/db)",
				Sources: cli.EnvVars("SOKOBAN_REDIS_URL"),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Value:   24 * time.Hour,
				Usage:   "idle time before a session is evicted from memory and expires in Redis",
				Sources: cli.EnvVars("SOKOBAN_SESSION_TTL"),
			},
			&cli.BoolFlag{
				Name:    "auto-advance",
				Usage:   "load the next level as soon as one is solved",
				Sources: cli.EnvVars("SOKOBAN_AUTO_ADVANCE"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("SOKOBAN_DEBUG"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "expose the server through an ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: withConfig(serve),
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "run the HTTP server with API, WebSocket, and MCP endpoint (default)",
				Action:  withConfig(serve),
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "run an MCP stdio server backed by the HTTP API",
				Action:  withConfig(stdio),
			},
		},
	}
}

func withConfig(run runFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg := configFromCommand(cmd)
		return run(ctx, cfg, newLogger(cfg.debug))
	}
}

func configFromCommand(cmd *cli.Command) config {
	return config{
		addr:         cmd.String("addr"),
		levelsDir:    cmd.String("levels-dir"),
		sessionsDir:  cmd.String("sessions-dir"),
		redisURL:     cmd.String("redis-url"),
		sessionTTL:   cmd.Duration("session-ttl"),
		autoAdvance:  cmd.Bool("auto-advance"),
		debug:        cmd.Bool("debug"),
		ngrokEnabled: cmd.Bool("ngrok"),
		ngrokToken:   cmd.String("ngrok-auth"),
		ngrokDomain:  cmd.String("ngrok-domain"),
	}
}

// newLogger logs to stderr so stdout stays free for the MCP stdio transport.
func newLogger(debug bool) *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to load .env file")
	}

	if err := newCommand(runHTTPServer, runStdioMCP).Run(context.Background(), os.Args); err != nil {
		log.WithError(err).Fatal("sokoban exited")
	}
}
