package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/Blessan-Alex/MalRag/config"
)

func testApp(out *bytes.Buffer) *cli.App {
	app := newApp()
	app.Writer = out
	app.ErrWriter = out
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not registered", name)
	return nil
}

func TestCommandsRegistered(t *testing.T) {
	app := newApp()
	for _, name := range []string{"serve", "ingest", "query", "transcribe", "keys"} {
		assert.NotNil(t, findCommand(t, app, name))
	}
}

func TestServiceFlagDefaults(t *testing.T) {
	cmd := findCommand(t, newApp(), "ingest")

	var provider, model *cli.StringFlag
	var attempts *cli.IntFlag
	for _, flag := range cmd.Flags {
		switch f := flag.(type) {
		case *cli.StringFlag:
			switch f.Name {
			case "provider":
				provider = f
			case "completion-model":
				model = f
			}
		case *cli.IntFlag:
			if f.Name == "max-attempts" {
				attempts = f
			}
		}
	}
	require.NotNil(t, provider)
	require.NotNil(t, model)
	require.NotNil(t, attempts)
	assert.Equal(t, "gemini", provider.Value)
	assert.Equal(t, "gemini-1.5-flash", model.Value)
	assert.Equal(t, 3, attempts.Value)
}

func TestInvalidLogLevel(t *testing.T) {
	var out bytes.Buffer
	err := testApp(&out).Run([]string{"malrag", "--log-level", "chatty", "keys"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestKeysCommand(t *testing.T) {
	t.Run("masks configured keys", func(t *testing.T) {
		t.Setenv(config.EnvAPIKeys, "alpha-secret-1234,beta-secret-5678")
		var out bytes.Buffer
		require.NoError(t, testApp(&out).Run([]string{"malrag", "keys"}))

		assert.Contains(t, out.String(), "2 credentials configured")
		assert.Contains(t, out.String(), "...1234")
		assert.Contains(t, out.String(), "...5678")
		assert.NotContains(t, out.String(), "alpha-secret")
	})

	t.Run("no keys", func(t *testing.T) {
		t.Setenv(config.EnvAPIKeys, "")
		t.Setenv(config.EnvGoogleKey, "")
		var out bytes.Buffer
		err := testApp(&out).Run([]string{"malrag", "keys"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no credentials found")
	})
}

func mockArgs(t *testing.T, command string) []string {
	t.Helper()
	return []string{
		"malrag", "--log-level", "error", command,
		"--in-memory",
		"--provider", "mock",
		"--retry-delay", "1ms",
		"--upload-dir", filepath.Join(t.TempDir(), "uploads"),
	}
}

func TestIngestCommand(t *testing.T) {
	t.Setenv(config.EnvAPIKeys, "test-key-0001")
	dir := t.TempDir()
	good := filepath.Join(dir, "notes.txt")
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(good, []byte("Kochi is a port city."), 0o644))
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	t.Run("all files succeed", func(t *testing.T) {
		var out bytes.Buffer
		args := append(mockArgs(t, "ingest"), good)
		require.NoError(t, testApp(&out).Run(args))
		assert.FileExists(t, good, "source files are copied, not consumed")
	})

	t.Run("failures are reported", func(t *testing.T) {
		var out bytes.Buffer
		args := append(mockArgs(t, "ingest"), good, empty)
		err := testApp(&out).Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 files failed")
	})

	t.Run("requires files", func(t *testing.T) {
		var out bytes.Buffer
		err := testApp(&out).Run(mockArgs(t, "ingest"))
		require.Error(t, err)
	})
}

func TestQueryCommand(t *testing.T) {
	t.Setenv(config.EnvAPIKeys, "test-key-0001")

	var out bytes.Buffer
	args := append(mockArgs(t, "query"), "--only-context", "anything", "there")
	require.NoError(t, testApp(&out).Run(args))

	out.Reset()
	err := testApp(&out).Run(mockArgs(t, "query"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "question is required")
}

func TestTranscribeCommand(t *testing.T) {
	t.Setenv(config.EnvAPIKeys, "test-key-0001")
	audio := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFFxxxx"), 0o644))

	var out bytes.Buffer
	args := append(mockArgs(t, "transcribe"), "--mime-type", "audio/wav", audio)
	require.NoError(t, testApp(&out).Run(args))
	assert.Contains(t, out.String(), "transcript of 8 bytes (audio/wav)")
}

func TestTranscribeWithoutCredentials(t *testing.T) {
	t.Setenv(config.EnvAPIKeys, "")
	t.Setenv(config.EnvGoogleKey, "")
	audio := filepath.Join(t.TempDir(), "clip.wav")
	require.NoError(t, os.WriteFile(audio, []byte("RIFFxxxx"), 0o644))

	var out bytes.Buffer
	args := append(mockArgs(t, "transcribe"), audio)
	err := testApp(&out).Run(args)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credential")
}
