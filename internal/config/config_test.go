package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TFMV/flash/internal/logging"
	"github.com/TFMV/flash/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Empty(t, cfg.Command)
	assert.Equal(t, []string{"."}, cfg.Watch)
	assert.Empty(t, cfg.Ext)
	assert.Empty(t, cfg.Patterns)
	assert.Empty(t, cfg.Ignore)
	assert.Equal(t, uint64(100), cfg.Debounce)
	assert.False(t, cfg.Initial)
	assert.False(t, cfg.Clear)
	assert.False(t, cfg.Restart)
	assert.False(t, cfg.Stats)
	assert.Equal(t, uint64(10), cfg.StatsInterval)
	assert.False(t, cfg.FastStartup)
	assert.Equal(t, BackendFsnotify, cfg.Backend)
	assert.Equal(t, 100*time.Millisecond, cfg.DebounceWindow())
	assert.Equal(t, 10*time.Second, cfg.StatsPeriod())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "flash.yaml", `
command: ["npm", "run", "dev"]
watch:
  - src
  - public
ext: "js,jsx,ts,tsx"
pattern:
  - "src/**/*.{js,jsx,ts,tsx}"
ignore:
  - "**/node_modules/**"
  - "**/.git/**"
debounce: 200
initial: true
clear: true
restart: true
stats: true
stats_interval: 5
`)

	f, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"npm", "run", "dev"}, f.Command)
	require.NotNil(t, f.Watch)
	assert.Equal(t, []string{"src", "public"}, *f.Watch)
	require.NotNil(t, f.Ext)
	assert.Equal(t, "js,jsx,ts,tsx", *f.Ext)
	require.NotNil(t, f.Pattern)
	assert.Equal(t, []string{"src/**/*.{js,jsx,ts,tsx}"}, *f.Pattern)
	require.NotNil(t, f.Ignore)
	assert.Len(t, *f.Ignore, 2)
	require.NotNil(t, f.Debounce)
	assert.Equal(t, uint64(200), *f.Debounce)
	assert.True(t, *f.Initial)
	assert.True(t, *f.Clear)
	assert.True(t, *f.Restart)
	assert.True(t, *f.Stats)
	assert.Equal(t, uint64(5), *f.StatsInterval)
	assert.Nil(t, f.FastStartup)
	assert.Nil(t, f.Backend)
}

func TestLoadFileMinimal(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "flash.yaml", `command: ["cargo", "test"]`)

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cargo", "test"}, f.Command)
	assert.Nil(t, f.Watch)
	assert.Nil(t, f.Ext)
	assert.Nil(t, f.Debounce)
	assert.Nil(t, f.Initial)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigRead)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFileInvalidYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "bad.yaml", "command: [unterminated\n  - : :")

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
	assert.Contains(t, err.Error(), path)
}

func TestLoadFileUnknownKey(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "typo.yaml", "command: [make]\ndebunce: 50\n")

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestLoadFileWrongType(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "types.yaml", "command: [make]\ndebounce: soon\n")

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Command)
}

func ptr[T any](v T) *T { return &v }

func TestMergeFillsDefaults(t *testing.T) {
	cfg := Default()
	Merge(&cfg, File{
		Command:       []string{"npm", "test"},
		Watch:         ptr([]string{"src", "lib"}),
		Ext:           ptr("js,ts"),
		Pattern:       ptr([]string{"src/**"}),
		Ignore:        ptr([]string{"dist/**"}),
		Debounce:      ptr(uint64(300)),
		Initial:       ptr(true),
		Clear:         ptr(true),
		Restart:       ptr(true),
		Stats:         ptr(true),
		StatsInterval: ptr(uint64(30)),
		FastStartup:   ptr(true),
		Backend:       ptr(BackendNotify),
	})

	assert.Equal(t, []string{"npm", "test"}, cfg.Command)
	assert.Equal(t, []string{"src", "lib"}, cfg.Watch)
	assert.Equal(t, "js,ts", cfg.Ext)
	assert.Equal(t, []string{"src/**"}, cfg.Patterns)
	assert.Equal(t, []string{"dist/**"}, cfg.Ignore)
	assert.Equal(t, uint64(300), cfg.Debounce)
	assert.True(t, cfg.Initial)
	assert.True(t, cfg.Clear)
	assert.True(t, cfg.Restart)
	assert.True(t, cfg.Stats)
	assert.Equal(t, uint64(30), cfg.StatsInterval)
	assert.True(t, cfg.FastStartup)
	assert.Equal(t, BackendNotify, cfg.Backend)
}

func TestMergeCommandLineWins(t *testing.T) {
	cfg := Default()
	cfg.Command = []string{"go", "test", "./..."}
	cfg.Watch = []string{"internal"}
	cfg.Ext = "go"
	cfg.Patterns = []string{"**/*.go"}
	cfg.Ignore = []string{"vendor/**"}
	cfg.Debounce = 50
	cfg.StatsInterval = 2

	Merge(&cfg, File{
		Command:       []string{"npm", "test"},
		Watch:         ptr([]string{"src"}),
		Ext:           ptr("js"),
		Pattern:       ptr([]string{"src/**"}),
		Ignore:        ptr([]string{"dist/**"}),
		Debounce:      ptr(uint64(300)),
		StatsInterval: ptr(uint64(30)),
	})

	assert.Equal(t, []string{"go", "test", "./..."}, cfg.Command)
	assert.Equal(t, []string{"internal"}, cfg.Watch)
	assert.Equal(t, "go", cfg.Ext)
	assert.Equal(t, []string{"**/*.go"}, cfg.Patterns)
	assert.Equal(t, []string{"vendor/**"}, cfg.Ignore)
	assert.Equal(t, uint64(50), cfg.Debounce)
	assert.Equal(t, uint64(2), cfg.StatsInterval)
}

func TestMergeLogLevel(t *testing.T) {
	cfg := Default()
	Merge(&cfg, File{LogLevel: ptr("debug")})
	assert.Equal(t, logging.LogLevelDebug, cfg.LogLevel)

	cfg = Default()
	cfg.LogLevel = logging.LogLevelError
	Merge(&cfg, File{LogLevel: ptr("debug")})
	assert.Equal(t, logging.LogLevelError, cfg.LogLevel, "--silent wins over the file")
}

func TestMergeExplicitDefaultLosesToFile(t *testing.T) {
	cfg := Default()
	cfg.Debounce = 100 // given on the command line, indistinguishable from the default

	Merge(&cfg, File{Debounce: ptr(uint64(500))})
	assert.Equal(t, uint64(500), cfg.Debounce)
}

func TestMergeTrueFlagIsNotOverridden(t *testing.T) {
	cfg := Default()
	cfg.Restart = true

	Merge(&cfg, File{Restart: ptr(false)})
	assert.True(t, cfg.Restart)
}

func TestMergeAbsentKeysKeepValues(t *testing.T) {
	cfg := Default()
	Merge(&cfg, File{Command: []string{"make"}})

	want := Default()
	want.Command = []string{"make"}
	assert.Equal(t, want, cfg)
}

func TestMergeEmptyFileCommandKeepsEmpty(t *testing.T) {
	cfg := Default()
	Merge(&cfg, File{})
	assert.Empty(t, cfg.Command)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Command = []string{"echo"}
	require.NoError(t, valid.Validate())

	t.Run("no command", func(t *testing.T) {
		cfg := Default()
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrNoCommand)
		assert.Contains(t, err.Error(), "no command specified")
	})

	t.Run("invalid include pattern", func(t *testing.T) {
		cfg := valid
		cfg.Patterns = []string{"src/[abc"}
		assert.ErrorIs(t, cfg.Validate(), policy.ErrInvalidPattern)
	})

	t.Run("invalid ignore pattern", func(t *testing.T) {
		cfg := valid
		cfg.Ignore = []string{"{unclosed"}
		assert.ErrorIs(t, cfg.Validate(), policy.ErrInvalidPattern)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := valid
		cfg.Backend = "polling"
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidBackend)
	})

	t.Run("zero stats interval", func(t *testing.T) {
		cfg := valid
		cfg.Stats = true
		cfg.StatsInterval = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidInterval)
	})

	t.Run("zero interval without stats", func(t *testing.T) {
		cfg := valid
		cfg.StatsInterval = 0
		assert.NoError(t, cfg.Validate())
	})

	t.Run("errors are joined", func(t *testing.T) {
		cfg := Default()
		cfg.Backend = "polling"
		err := cfg.Validate()
		assert.ErrorIs(t, err, ErrNoCommand)
		assert.ErrorIs(t, err, ErrInvalidBackend)
	})
}

func TestDiscover(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, ".flash.yaml", "command: [make]")
		assert.Equal(t, "custom.yaml", Discover("custom.yaml", dir))
	})

	t.Run("first directory wins", func(t *testing.T) {
		first, second := t.TempDir(), t.TempDir()
		writeConfig(t, second, ".flash.yaml", "command: [make]")
		want := writeConfig(t, first, ".flash.yaml", "command: [go]")

		assert.Equal(t, want, Discover("", first, second))
	})

	t.Run("falls back to later directory", func(t *testing.T) {
		first, second := t.TempDir(), t.TempDir()
		want := writeConfig(t, second, ".flash.yml", "command: [make]")

		assert.Equal(t, want, Discover("", first, second))
	})

	t.Run("nothing found", func(t *testing.T) {
		assert.Empty(t, Discover("", t.TempDir()))
	})

	t.Run("other formats are skipped", func(t *testing.T) {
		first, second := t.TempDir(), t.TempDir()
		writeConfig(t, first, ".flash.json", `{"command": ["make"]}`)
		writeConfig(t, first, ".flash.toml", `command = ["make"]`)
		want := writeConfig(t, second, ".flash.yaml", "command: [go]")

		assert.Equal(t, want, Discover("", first, second))
	})

	t.Run("yaml next to another format", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, ".flash.json", `{"command": ["make"]}`)
		want := writeConfig(t, dir, ".flash.yml", "command: [go]")

		assert.Equal(t, want, Discover("", dir))
	})

	t.Run("bare name is not a config file", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, ".flash", "command: [make]")
		assert.Empty(t, Discover("", dir))
	})

	t.Run("malformed file is still returned", func(t *testing.T) {
		dir := t.TempDir()
		want := writeConfig(t, dir, ".flash.yaml", "command: [unterminated")
		assert.Equal(t, want, Discover("", dir))
	})
}

func TestSearchDirs(t *testing.T) {
	dirs := SearchDirs()
	require.NotEmpty(t, dirs)
	assert.Equal(t, ".", dirs[0])
}
