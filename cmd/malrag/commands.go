package main

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	malrag "github.com/Blessan-Alex/MalRag"
	"github.com/Blessan-Alex/MalRag/config"
	"github.com/Blessan-Alex/MalRag/credentials"
	"github.com/Blessan-Alex/MalRag/engine"
	"github.com/Blessan-Alex/MalRag/progress"
	"github.com/Blessan-Alex/MalRag/server"
)

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := buildConfig(c)
	svc, err := malrag.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Close()

	srv, err := server.New(server.Deps{
		Ingester:    svc.Pipeline(),
		Jobs:        svc.Jobs(),
		Querier:     svc.Engine(),
		Transcriber: svc.Provider(),
		Registry:    svc.Registry(),
		Index:       svc.Index(),
		UploadDir:   svc.UploadDir(),
	},
		server.WithCORSOrigins(cfg.CORSOrigins...),
		server.WithMaxUploadBytes(c.Int64("max-upload-mb")<<20),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Provider: %s (%d credentials)\n", cfg.AI.Provider, svc.Credentials().Len())
	fmt.Fprintf(os.Stderr, "Database: %s\n", describeDB(cfg))
	fmt.Fprintf(os.Stderr, "Listening on %s\n", cfg.ListenAddr)

	return srv.Run(ctx, cfg.ListenAddr)
}

func ingestCommand(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return errors.New("at least one file is required")
	}

	cfg := buildConfig(c)
	reporter := progress.NewReporter(os.Stderr, len(paths))
	svc, err := malrag.Open(c.Context, cfg, malrag.WithJobObserver(reporter.Observe))
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Close()

	reporter.Start()
	pipeline := svc.Pipeline()
	for _, path := range paths {
		filename := filepath.Base(path)
		jobID := pipeline.Submit(filename)

		// The pipeline deletes what it processes, so it gets a copy.
		staged, err := stageUpload(svc.UploadDir(), path)
		if err != nil {
			svc.Jobs().MarkFailed(jobID, fmt.Sprintf("File could not be read: %s: %v", filename, err))
			continue
		}
		if err := pipeline.Start(jobID, staged, filename); err != nil {
			return err
		}
	}

	select {
	case <-reporter.Done():
	case <-c.Context.Done():
		return c.Context.Err()
	}
	reporter.Finish()

	failed := reporter.Failed()
	for _, job := range failed {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", job.Filename, job.Message)
	}
	if len(failed) > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d files failed", len(failed), len(paths)), 1)
	}
	return nil
}

// stageUpload copies src into dir under a fresh name.
func stageUpload(dir, src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	dst := filepath.Join(dir, uuid.NewString()+filepath.Ext(src))
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", err
	}
	return dst, out.Close()
}

func queryCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("a question is required")
	}

	svc, err := malrag.Open(c.Context, buildConfig(c))
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Close()

	answer, err := svc.Engine().Query(c.Context, question, engine.QueryOptions{
		Mode:        c.String("mode"),
		Limit:       c.Int("limit"),
		OnlyContext: c.Bool("only-context"),
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if c.Bool("only-context") {
		fmt.Fprintln(c.App.Writer, answer.Context)
		return nil
	}
	fmt.Fprintln(c.App.Writer, answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Fprintln(c.App.Writer)
		fmt.Fprintln(c.App.Writer, "Sources:")
		for _, s := range answer.Sources {
			fmt.Fprintf(c.App.Writer, "  %s #%d (%.3f)\n", s.Source, s.Position, s.Score)
		}
	}
	return nil
}

func transcribeCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("an audio file is required")
	}
	audio, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	mimeType := c.String("mime-type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	}
	if mimeType == "" {
		mimeType = "audio/mpeg"
	}

	svc, err := malrag.Open(c.Context, buildConfig(c))
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Close()

	text, err := svc.Provider().Transcribe(c.Context, audio, mimeType)
	if err != nil {
		return fmt.Errorf("transcription failed: %w", err)
	}
	fmt.Fprintln(c.App.Writer, text)
	return nil
}

func keysCommand(c *cli.Context) error {
	pool := credentials.NewPool(config.KeysFromEnv())
	if pool.Len() == 0 {
		return cli.Exit(fmt.Sprintf("no credentials found; set %s or %s", config.EnvAPIKeys, config.EnvGoogleKey), 1)
	}

	fmt.Fprintf(c.App.Writer, "%d credentials configured:\n", pool.Len())
	for i, masked := range pool.Masked() {
		fmt.Fprintf(c.App.Writer, "  %d. %s\n", i+1, masked)
	}
	return nil
}

func describeDB(cfg *config.Config) string {
	switch {
	case cfg.InMemory:
		return "in memory"
	case cfg.PostgresDSN != "":
		return cfg.DBPath + " (documents in PostgreSQL)"
	}
	return cfg.DBPath
}

