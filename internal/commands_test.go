package internal

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrSnakeDoc/otawatch/internal/errs"
	"github.com/MrSnakeDoc/otawatch/internal/globalconfig"
	"github.com/MrSnakeDoc/otawatch/internal/middleware"
	"github.com/MrSnakeDoc/otawatch/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixturePage      = "release/testdata/ota_page.html"
	walleyePorcelain = "walleye|qq1a.191205.008|" +
		"https://dl.google.com/dl/android/aosp/walleye-qq1a.191205.008-factory-fcc4bb81.zip|" +
		"fcc4bb811eed22a4cecf3b3746ed5619ba2d25aca7a4fb6b427ae8011d68ce61"
)

type env struct {
	home   string
	config string
	prefix string
}

// isolate points HOME at a temp dir and writes a config file whose state
// prefix and cache live inside it.
func isolate(t *testing.T) env {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	e := env{
		home:   home,
		config: filepath.Join(home, "otawatch.yml"),
		prefix: filepath.Join(home, "state", "version_"),
	}

	yml := "state_prefix: " + e.prefix + "\n" +
		"cache_dir: " + filepath.Join(home, "cache") + "\n" +
		"devices: [walleye, taimen]\n"
	require.NoError(t, os.WriteFile(e.config, []byte(yml), 0o644))
	return e
}

// run executes the root command silently and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "-s"))
	_, err := root.ExecuteC()
	return out.String(), err
}

func TestCheckCmd_Porcelain(t *testing.T) {
	e := isolate(t)

	out, err := run(t, "check", "--config", e.config, "-n", "walleye", "-p", "--page-file", fixturePage)
	require.NoError(t, err)
	assert.Equal(t, walleyePorcelain+"\n", out)

	got, ok, err := state.NewFileStore(e.prefix).Read("walleye")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "qq1a.191205.008", got)
}

func TestCheckCmd_FilePrefixFlag(t *testing.T) {
	e := isolate(t)
	prefix := filepath.Join(e.home, ".pixel_update_")

	_, err := run(t, "check", "--config", e.config, "-n", "walleye", "-f", prefix, "--page-file", fixturePage)
	require.NoError(t, err)

	data, err := os.ReadFile(prefix + "walleye")
	require.NoError(t, err)
	assert.Equal(t, "qq1a.191205.008", string(data))
}

func TestCheckCmd_Index(t *testing.T) {
	e := isolate(t)

	out, err := run(t, "check", "--config", e.config, "-n", "walleye", "-p", "--index", "1", "--page-file", fixturePage)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "walleye|qp1a.191105.004|"), out)
}

func TestCheckCmd_Errors(t *testing.T) {
	e := isolate(t)

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, err error)
	}{
		{
			name: "missing codename",
			args: []string{"check", "--config", e.config, "--page-file", fixturePage},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, middleware.ErrLogged))
			},
		},
		{
			name: "unknown codename",
			args: []string{"check", "--config", e.config, "-n", "walleey", "--page-file", fixturePage},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, errs.ErrNoMatch))
				assert.Contains(t, err.Error(), "No data found for codename walleey")
			},
		},
		{
			name: "unknown layout",
			args: []string{"check", "--config", e.config, "-n", "walleye", "--layout", "sideways"},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, middleware.ErrLogged))
			},
		},
		{
			name: "unknown policy",
			args: []string{"check", "--config", e.config, "-n", "walleye", "--policy", "vibes"},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, middleware.ErrLogged))
			},
		},
		{
			name: "insecure page url",
			args: []string{"check", "--config", e.config, "-n", "walleye", "--page-url", "http://example.com/images"},
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
			},
		},
		{
			name: "missing explicit config",
			args: []string{"check", "--config", filepath.Join(e.home, "nope.yml"), "-n", "walleye"},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "failed to read config file")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestMirrorCmd_DryRun(t *testing.T) {
	e := isolate(t)
	output := filepath.Join(e.home, "factory")

	out, err := run(t, "mirror", "--config", e.config, "-o", output, "-n", "walleye", "-d", "--page-file", fixturePage)
	require.NoError(t, err)
	assert.Equal(t, "device=walleye,release_tag=qq1a.191205.008,"+
		"package_url=https://dl.google.com/dl/android/aosp/walleye-qq1a.191205.008-factory-fcc4bb81.zip\n", out)

	assert.NoDirExists(t, output)
	_, ok, _ := state.NewFileStore(e.prefix).Read("walleye")
	assert.False(t, ok)
}

func TestMirrorCmd_DryRunAllDevices(t *testing.T) {
	e := isolate(t)

	output := filepath.Join(e.home, "factory")

	out, err := run(t, "mirror", "--config", e.config, "-o", output, "-d", "--page-file", fixturePage)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "device=walleye,"))
	assert.True(t, strings.HasPrefix(lines[1], "device=taimen,release_tag=qq1a.191205.008,"))
}

func TestMirrorCmd_RequiresOutput(t *testing.T) {
	e := isolate(t)

	for _, args := range [][]string{
		{"mirror", "--config", e.config, "-n", "walleye", "--page-file", fixturePage},
		{"mirror", "--config", e.config, "-n", "walleye", "-d", "--page-file", fixturePage},
	} {
		_, err := run(t, args...)
		require.Error(t, err)
		assert.ErrorContains(t, err, `required flag(s) "output" not set`)
	}
}

func TestDevicesCmd(t *testing.T) {
	e := isolate(t)
	require.NoError(t, state.NewFileStore(e.prefix).Write("walleye", "qq1a.191205.008"))

	out, err := run(t, "devices", "--config", e.config)
	require.NoError(t, err)

	assert.Contains(t, out, "walleye")
	assert.Contains(t, out, "qq1a.191205.008")
	assert.Contains(t, out, "taimen")
	assert.Contains(t, out, "never checked")
	assert.Contains(t, out, "~/state/version_walleye")
}

func TestInitCmd(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "conf", "otawatch.yml")

	_, err := run(t, "init", "--config", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	cfg, err := globalconfig.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://developers.google.com/android/images", cfg.PageURL)
	assert.Contains(t, cfg.Devices, "walleye")

	// a second init keeps the edited file
	require.NoError(t, os.WriteFile(path, []byte("devices: [coral]\n"), 0o644))
	_, err = run(t, "init", "--config", path)
	require.NoError(t, err)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "devices: [coral]\n", string(data))

	_, err = run(t, "init", "--config", path, "--force")
	require.NoError(t, err)
	data, _ = os.ReadFile(path)
	assert.NotEqual(t, "devices: [coral]\n", string(data))
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")

	out, err = run(t, "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")
}
