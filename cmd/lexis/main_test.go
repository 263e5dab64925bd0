package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const opinionText = "I. Sachverhalt\n" +
	"Der Erblasser verstarb im Jahr 2020 und hinterließ ein handschriftliches Testament zugunsten seiner Tochter.\n" +
	"II. Frage\n" +
	"Es wird gefragt, ob das Testament trotz fehlender Datumsangabe formwirksam errichtet wurde.\n" +
	"III. Rechtslage\n" +
	"Nach der Rechtsprechung des BGH ist die fehlende Datumsangabe unschädlich, sofern keine Zweifel bestehen. Maßgeblich ist § 2247 BGB.\n"

// run executes the app with fresh output buffers.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"lexis"}, args...))
	return out.String(), err
}

// writeTestConfig writes a config for an on-disk index in a temp dir with
// the mock embedding provider.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lexis.yaml")
	content := "log_level: error\n" +
		"storage:\n" +
		"  path: " + filepath.Join(dir, "index") + "\n" +
		"embedding:\n" +
		"  provider: mock\n" +
		"text:\n" +
		"  tokenizer: approx\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeDocuments(t *testing.T, ids ...string) string {
	t.Helper()
	var buf bytes.Buffer
	for _, id := range ids {
		line, err := json.Marshal(documentLine{
			ID:              id,
			PublicationDate: "2021-03-01",
			LegalArea:       "Erbrecht",
			LegalNorms:      []string{"§ 2247 BGB"},
			Text:            opinionText,
		})
		require.NoError(t, err)
		buf.Write(line)
		buf.WriteString("\n\n")
	}
	path := filepath.Join(t.TempDir(), "opinions.jsonl")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestCommands(t *testing.T) {
	cfg := writeTestConfig(t)
	docs := writeDocuments(t, "gutachten-1", "gutachten-2")

	out, err := run(t, "--config", cfg, "ingest", docs)
	require.NoError(t, err)
	assert.Contains(t, out, "gutachten-1")
	assert.Contains(t, out, "Ingested 2, skipped 0, failed 0")

	t.Run("ingest again skips unchanged documents", func(t *testing.T) {
		out, err := run(t, "--config", cfg, "ingest", docs)
		require.NoError(t, err)
		assert.Contains(t, out, "Ingested 0, skipped 2")
	})

	t.Run("search", func(t *testing.T) {
		out, err := run(t, "--config", cfg, "search", "--limit", "3", "Ist", "das", "Testament", "formwirksam?")
		require.NoError(t, err)
		assert.Contains(t, out, " 1. [")
		assert.Contains(t, out, "results")
	})

	t.Run("search with section filter", func(t *testing.T) {
		out, err := run(t, "--config", cfg, "search", "--section", "fact_pattern", "--document", "gutachten-2", "Erblasser")
		require.NoError(t, err)
		assert.NotContains(t, out, "gutachten-1")
	})

	t.Run("select", func(t *testing.T) {
		out, err := run(t, "--config", cfg, "select", "Testament nach § 2247 BGB")
		require.NoError(t, err)
		assert.Contains(t, out, "norms:    § 2247 BGB")
		assert.Contains(t, out, "Selected ")
	})

	t.Run("stats", func(t *testing.T) {
		out, err := run(t, "--config", cfg, "stats")
		require.NoError(t, err)
		assert.Contains(t, out, "Documents:  2 (0 degraded)")
		assert.Contains(t, out, "fact_pattern")
	})

	t.Run("reembed", func(t *testing.T) {
		out, err := run(t, "--config", cfg, "reembed", "--batch-size", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "Embedded ")
		assert.Contains(t, out, "skipped 0")
	})
}

func TestCommandValidation(t *testing.T) {
	cfg := writeTestConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"search without query", []string{"search"}, "a query is required"},
		{"unknown strategy", []string{"search", "--strategy", "fuzzy", "Testament"}, "fuzzy"},
		{"unknown section", []string{"search", "--section", "appendix", "Testament"}, "appendix"},
		{"ingest batch size", []string{"ingest", "--batch-size", "0"}, "batch-size"},
		{"missing input file", []string{"ingest", filepath.Join(t.TempDir(), "missing.jsonl")}, "missing.jsonl"},
		{"reembed batch size", []string{"reembed", "--batch-size", "0"}, "batch size"},
		{"init-config without path", []string{"init-config"}, "config path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--config", cfg}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("invalid config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: sqlite\n"), 0644))
		_, err := run(t, "--config", path, "stats")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite")
	})
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "lexis.yaml")

	out, err := run(t, "init-config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: badger")

	_, err = run(t, "init-config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run(t, "init-config", "--overwrite", path)
	assert.NoError(t, err)
}

func TestReadDocuments(t *testing.T) {
	t.Run("parses lines", func(t *testing.T) {
		input := `{"id":"a","publication_date":"2020-05-04","legal_area":"Erbrecht","legal_norms":["§ 2325 BGB"],"text":"Text A"}

{"id":"b","text":"Text B"}
`
		docs, err := readDocuments(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "a", docs[0].ID)
		assert.Equal(t, 2020, docs[0].PublicationDate.Year())
		assert.Equal(t, []string{"§ 2325 BGB"}, docs[0].LegalNorms)
		assert.Equal(t, "Text B", docs[1].RawText)
		assert.True(t, docs[1].PublicationDate.IsZero())
	})

	t.Run("reports line of invalid json", func(t *testing.T) {
		_, err := readDocuments(strings.NewReader("{\"id\":\"a\"}\n{not json}\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("rejects invalid date", func(t *testing.T) {
		_, err := readDocuments(strings.NewReader(`{"id":"a","publication_date":"04.05.2020"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "publication_date")
	})
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "a b c", preview("a\n b\t\tc"))
	long := strings.Repeat("ä", previewLength+10)
	got := preview(long)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, previewLength+1, len([]rune(got)))
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
			{"DEBUG", slog.LevelDebug},
			{"WaRn", slog.LevelWarn},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				level, err := parseLevel(tc.input)
				require.NoError(t, err)
				assert.Equal(t, tc.expected, level)

				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}
				require.NoError(t, app.Run([]string{"test", "--log-level", tc.input}))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "log-level",
					Value: "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("configured level applies without flag", func(t *testing.T) {
		cfg := writeTestConfig(t)
		app := newApp()
		app.Action = func(c *cli.Context) error {
			assert.False(t, slog.Default().Enabled(c.Context, slog.LevelWarn))
			assert.True(t, slog.Default().Enabled(c.Context, slog.LevelError))
			return nil
		}
		require.NoError(t, app.Run([]string{"lexis", "--config", cfg}))
	})

	t.Run("flag overrides configured level", func(t *testing.T) {
		cfg := writeTestConfig(t)
		app := newApp()
		app.Action = func(c *cli.Context) error {
			assert.True(t, slog.Default().Enabled(c.Context, slog.LevelDebug))
			return nil
		}
		require.NoError(t, app.Run([]string{"lexis", "-l", "debug", "--config", cfg}))
	})
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
