package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Blessan-Alex/MalRag/ai"
	"github.com/Blessan-Alex/MalRag/config"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var closeLog func() error

	return &cli.App{
		Name:  "malrag",
		Usage: "Document ingestion and retrieval service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"MALRAG_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Also write JSON logs to this file",
				EnvVars: []string{"MALRAG_LOG_FILE"},
			},
		},
		Before: func(c *cli.Context) error {
			cleanup, err := setupLogger(c)
			closeLog = cleanup
			return err
		},
		After: func(c *cli.Context) error {
			if closeLog != nil {
				return closeLog()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   ":8000",
						EnvVars: []string{"MALRAG_ADDR"},
					},
					&cli.StringSliceFlag{
						Name:    "cors-origin",
						Usage:   "Browser origin allowed to call the API (repeatable, * for any)",
						Value:   cli.NewStringSlice(config.Default().CORSOrigins...),
						EnvVars: []string{"MALRAG_CORS_ORIGINS"},
					},
					&cli.Int64Flag{
						Name:  "max-upload-mb",
						Usage: "Largest accepted upload in megabytes",
						Value: 64,
					},
				),
			},
			{
				Name:      "ingest",
				Usage:     "Ingest files and wait for them to finish",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags:     serviceFlags(),
			},
			{
				Name:      "query",
				Usage:     "Ask a question about ingested documents",
				ArgsUsage: "QUESTION",
				Action:    queryCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Retrieval mode (naive, local, global, hybrid)",
						Value: "hybrid",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of chunks to retrieve",
						Value: 5,
					},
					&cli.BoolFlag{
						Name:  "only-context",
						Usage: "Print the retrieved context instead of an answer",
					},
				),
			},
			{
				Name:      "transcribe",
				Usage:     "Transcribe an audio file",
				ArgsUsage: "AUDIO_FILE",
				Action:    transcribeCommand,
				Flags: append(serviceFlags(),
					&cli.StringFlag{
						Name:  "mime-type",
						Usage: "Audio MIME type (guessed from the extension when empty)",
					},
				),
			},
			{
				Name:   "keys",
				Usage:  "Show the configured API credentials, masked",
				Action: keysCommand,
			},
		},
	}
}

// serviceFlags are shared by every command that opens the service.
func serviceFlags() []cli.Flag {
	defaults := config.Default()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory",
			Value:   defaults.DBPath,
			EnvVars: []string{"MALRAG_DB"},
		},
		&cli.BoolFlag{
			Name:  "in-memory",
			Usage: "Keep everything in memory (nothing survives exit)",
		},
		&cli.StringFlag{
			Name:    "postgres-dsn",
			Usage:   "Store the document registry in PostgreSQL",
			EnvVars: []string{"MALRAG_POSTGRES_DSN"},
		},
		&cli.StringFlag{
			Name:    "upload-dir",
			Usage:   "Directory for files waiting to be processed",
			Value:   defaults.UploadDir,
			EnvVars: []string{"MALRAG_UPLOAD_DIR"},
		},
		&cli.StringFlag{
			Name:    "provider",
			Usage:   "AI provider (gemini, openai, mock)",
			Value:   defaults.AI.Provider,
			EnvVars: []string{"MALRAG_PROVIDER"},
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "Base URL for OpenAI-compatible providers",
			EnvVars: []string{"MALRAG_HOST"},
		},
		&cli.StringFlag{
			Name:    "completion-model",
			Usage:   "Model used for answers, entities and transcription",
			Value:   defaults.AI.CompletionModel,
			EnvVars: []string{"LLM_MODEL"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   defaults.AI.EmbeddingModel,
			EnvVars: []string{"EMBEDDING_MODEL"},
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Attempts per provider call, rotating credentials between attempts",
			Value: defaults.AI.MaxAttempts,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Fixed delay between attempts",
			Value: defaults.AI.RetryDelay,
		},
		&cli.DurationFlag{
			Name:  "attempt-timeout",
			Usage: "Timeout for a single provider attempt (0 disables)",
			Value: defaults.AI.AttemptTimeout,
		},
		&cli.Float64Flag{
			Name:  "rps",
			Usage: "Provider requests per second (0 is unlimited)",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Chunks embedded per request",
			Value: defaults.AI.EmbeddingBatchSize,
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Target chunk size in characters",
			Value: defaults.ChunkSize,
		},
		&cli.IntFlag{
			Name:  "chunk-overlap",
			Usage: "Characters shared between neighbouring chunks",
			Value: defaults.ChunkOverlap,
		},
		&cli.BoolFlag{
			Name:  "no-entities",
			Usage: "Skip entity extraction",
		},
		&cli.IntFlag{
			Name:  "pool-size",
			Usage: "Files processed concurrently (0 uses half the CPUs)",
		},
		&cli.IntFlag{
			Name:  "extract-pool-size",
			Usage: "Concurrent text extractions (0 uses every CPU)",
		},
	}
}

// buildConfig resolves the service configuration from flags and environment.
func buildConfig(c *cli.Context) *config.Config {
	cfg := config.Default()
	cfg.DBPath = c.String("db")
	cfg.InMemory = c.Bool("in-memory")
	cfg.PostgresDSN = c.String("postgres-dsn")
	cfg.UploadDir = c.String("upload-dir")
	cfg.ChunkSize = c.Int("chunk-size")
	cfg.ChunkOverlap = c.Int("chunk-overlap")
	cfg.Entities = !c.Bool("no-entities")
	cfg.PoolSize = c.Int("pool-size")
	cfg.ExtractPoolSize = c.Int("extract-pool-size")
	cfg.Keys = config.KeysFromEnv()
	if c.IsSet("addr") {
		cfg.ListenAddr = c.String("addr")
	}
	if c.IsSet("cors-origin") {
		cfg.CORSOrigins = c.StringSlice("cors-origin")
	}

	cfg.AI = ai.NewConfig(
		ai.WithProvider(c.String("provider")),
		ai.WithHost(c.String("host")),
		ai.WithCompletionModel(c.String("completion-model")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithMaxAttempts(c.Int("max-attempts")),
		ai.WithRetryDelay(c.Duration("retry-delay")),
		ai.WithAttemptTimeout(c.Duration("attempt-timeout")),
		ai.WithRequestsPerSecond(c.Float64("rps")),
		ai.WithEmbeddingBatchSize(c.Int("batch-size")),
	)
	return cfg
}

func setupLogger(c *cli.Context) (func() error, error) {
	level, err := config.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, err
	}

	logger, cleanup := config.SetupLogger(os.Stderr, c.String("log-file"), level)
	slog.SetDefault(logger)
	return cleanup, nil
}
