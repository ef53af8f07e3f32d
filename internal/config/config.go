// Package config resolves server settings from a .env file, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	DBPath       string
	Addr         string
	MediaDir     string
	AdminUser    string
	LogPath      string
	JWTSecret    string
	RedisAddr    string
	AMQPURL      string
	OTLPEndpoint string
}

// Environment variables providing defaults for the flags.
const (
	EnvDB           = "OGLASNIK_DB"
	EnvAddr         = "OGLASNIK_ADDR"
	EnvMedia        = "OGLASNIK_MEDIA"
	EnvAdmin        = "OGLASNIK_ADMIN"
	EnvLog          = "OGLASNIK_LOG"
	EnvJWTSecret    = "OGLASNIK_JWT_SECRET"
	EnvRedisAddr    = "OGLASNIK_REDIS_ADDR"
	EnvAMQPURL      = "OGLASNIK_AMQP_URL"
	EnvOTLPEndpoint = "OGLASNIK_OTLP_ENDPOINT"
)

const usage = `Usage: oglasnik [flags]

Flags:
  -d, -db <path>          SQLite database path (default: oglasnik.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -m, -media <dir>        uploaded image directory (default: media)
  -u, -user <name>        admin username on first run (default: admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -redis <host:port>      Redis address for login throttling (default: in-process)
  -amqp <url>             RabbitMQ URL for announcement events (default: disabled)
  -otlp <url>             OTLP/HTTP trace endpoint (default: disabled)
  -h, -help               show this help and exit

Every flag can also be set with an OGLASNIK_* environment variable or in a
.env file in the working directory. The session signing secret is read from
OGLASNIK_JWT_SECRET and generated on first run if unset.
`

// LoadDotenv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotenv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Parse builds the configuration from args, using getenv for defaults.
// flag.ErrHelp is returned when help was requested.
func Parse(args []string, getenv func(string) string, out io.Writer) (*Config, error) {
	env := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{JWTSecret: getenv(EnvJWTSecret)}
	flags := flag.NewFlagSet("oglasnik", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() { fmt.Fprint(out, usage) }

	stringVar := func(p *string, value string, names ...string) {
		for _, name := range names {
			flags.StringVar(p, name, value, "")
		}
	}
	stringVar(&cfg.DBPath, env(EnvDB, "oglasnik.sqlite3"), "db", "d")
	stringVar(&cfg.Addr, env(EnvAddr, ":8080"), "addr", "a")
	stringVar(&cfg.MediaDir, env(EnvMedia, "media"), "media", "m")
	stringVar(&cfg.AdminUser, env(EnvAdmin, "admin"), "user", "u")
	stringVar(&cfg.LogPath, env(EnvLog, ""), "log", "l")
	stringVar(&cfg.RedisAddr, env(EnvRedisAddr, ""), "redis")
	stringVar(&cfg.AMQPURL, env(EnvAMQPURL, ""), "amqp")
	stringVar(&cfg.OTLPEndpoint, env(EnvOTLPEndpoint, ""), "otlp")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		flags.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}
	return cfg, nil
}
