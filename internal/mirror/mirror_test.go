package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/otawatch/internal/config"
	"github.com/MrSnakeDoc/otawatch/internal/errs"
	"github.com/MrSnakeDoc/otawatch/internal/logger"
	"github.com/MrSnakeDoc/otawatch/internal/service"
	"github.com/MrSnakeDoc/otawatch/internal/state"
	"github.com/MrSnakeDoc/otawatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const walleyeTag = "qq1a.191205.008"

const rowTemplate = `<tr id="%[1]s%[2]s"><td>%[2]s</td>
<td><a href="https://flash.android.com/build/0">Flash</a></td>
<td><a href="%[3]s">Link</a></td>
<td>%[4]s</td></tr>
`

func TestMain(m *testing.M) {
	logger.UseTestMode()
	os.Exit(m.Run())
}

type harness struct {
	t         *testing.T
	srv       *httptest.Server
	downloads *atomic.Int32
	conf      *config.Config
	out       string
	plan      *bytes.Buffer
	mirror    *Mirror
}

type serveFunc func(w http.ResponseWriter, r *http.Request, data []byte)

func writeAll(w http.ResponseWriter, _ *http.Request, data []byte) {
	_, _ = w.Write(data)
}

// trickle sends data in six parts, pausing delay after each one.
func trickle(delay time.Duration) serveFunc {
	return func(w http.ResponseWriter, r *http.Request, data []byte) {
		flusher, _ := w.(http.Flusher)
		step := len(data)/6 + 1
		for start := 0; start < len(data); start += step {
			end := min(start+step, len(data))
			if _, err := w.Write(data[start:end]); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			select {
			case <-r.Context().Done():
				return
			case <-time.After(delay):
			}
		}
	}
}

// newHarness serves a release page listing one row per codename in archives,
// plus the archives themselves. served overrides the bytes sent for a
// codename while the page keeps the checksum of archives.
func newHarness(t *testing.T, archives map[string][]byte, served map[string][]byte) *harness {
	return newHarnessWith(t, archives, served, config.DefaultTimeout, writeAll)
}

// newHarnessWith is newHarness with a custom page timeout and archive writer.
func newHarnessWith(t *testing.T, archives, served map[string][]byte, timeout time.Duration, serve serveFunc) *harness {
	t.Helper()

	downloads := &atomic.Int32{}
	mux := http.NewServeMux()
	srv := httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)

	codenames := make([]string, 0, len(archives))
	for c := range archives {
		codenames = append(codenames, c)
	}
	sort.Strings(codenames)

	var page bytes.Buffer
	page.WriteString("<html><body><table>\n")
	for _, codename := range codenames {
		data := archives[codename]
		if s, ok := served[codename]; ok {
			data = s
		}
		file := fmt.Sprintf("/dl/%s-%s-factory-0a1b2c3d.zip", codename, walleyeTag)
		mux.HandleFunc(file, func(w http.ResponseWriter, r *http.Request) {
			downloads.Add(1)
			serve(w, r, data)
		})
		fmt.Fprintf(&page, rowTemplate, codename, walleyeTag, srv.URL+file, testutil.SHA256Hex(archives[codename]))
	}
	page.WriteString("</table></body></html>\n")

	mux.HandleFunc("/images", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(page.Bytes())
	})

	conf := config.Default()
	conf.PageURL = srv.URL + "/images"
	conf.CacheDir = filepath.Join(t.TempDir(), "cache")
	conf.StatePrefix = filepath.Join(t.TempDir(), "version_")
	conf.Devices = codenames
	conf.Timeout = timeout

	pages := &http.Client{Transport: srv.Client().Transport, Timeout: timeout}
	m, err := New(&conf, pages, nil)
	require.NoError(t, err)
	plan := &bytes.Buffer{}
	m.Out = plan

	return &harness{
		t:         t,
		srv:       srv,
		downloads: downloads,
		conf:      &conf,
		out:       filepath.Join(t.TempDir(), "out"),
		plan:      plan,
		mirror:    m,
	}
}

func (h *harness) entries() []string {
	h.t.Helper()
	des, err := os.ReadDir(h.out)
	require.NoError(h.t, err)
	names := make([]string, 0, len(des))
	for _, d := range des {
		names = append(names, d.Name())
	}
	sort.Strings(names)
	return names
}

func walleyeArchive(t *testing.T) map[string][]byte {
	return map[string][]byte{"walleye": testutil.FactoryZip(t, "walleye", walleyeTag)}
}

func TestRun_InstallsRelease(t *testing.T) {
	h := newHarness(t, walleyeArchive(t), nil)

	err := h.mirror.Run(context.Background(), Options{Codename: "walleye", OutputDir: h.out})
	require.NoError(t, err)

	assert.Equal(t, []string{"walleye-" + walleyeTag}, h.entries())

	boot, err := os.ReadFile(filepath.Join(h.out, "walleye-"+walleyeTag, "boot.img"))
	require.NoError(t, err)
	assert.Equal(t, "boot-"+walleyeTag, string(boot))
	assert.FileExists(t, filepath.Join(h.out, "walleye-"+walleyeTag, "radio-walleye-g8998.img"))
	assert.NoFileExists(t, filepath.Join(h.out, "walleye-"+walleyeTag, "system.img"))

	got, ok, err := state.NewFileStore(h.conf.StatePrefix).Read("walleye")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, walleyeTag, got)

	assert.DirExists(t, filepath.Join(h.conf.CacheDir, "walleye"), "cache is kept without Clean")
}

func TestRun_SlowDownloadOutlivesPageTimeout(t *testing.T) {
	h := newHarnessWith(t, walleyeArchive(t), nil, 200*time.Millisecond, trickle(100*time.Millisecond))

	require.NoError(t, h.mirror.Run(context.Background(), Options{Codename: "walleye", OutputDir: h.out}))

	assert.Equal(t, []string{"walleye-" + walleyeTag}, h.entries())
	assert.EqualValues(t, 1, h.downloads.Load())
}

func TestNew_SeparatesPageAndDownloadClients(t *testing.T) {
	conf := config.Default()
	conf.Timeout = 3 * time.Second

	m, err := New(&conf, nil, nil)
	require.NoError(t, err)

	downloads, ok := m.Client.(*service.DefaultHTTPClient)
	require.True(t, ok)
	assert.Zero(t, downloads.Timeout)
	transport, ok := downloads.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, conf.Timeout, transport.ResponseHeaderTimeout)

	pages, ok := m.Resolver.Client.(*service.DefaultHTTPClient)
	require.True(t, ok)
	assert.Equal(t, conf.Timeout, pages.Timeout)
}

func TestRun_ReplacesPreviousRelease(t *testing.T) {
	h := newHarness(t, walleyeArchive(t), nil)

	for _, dir := range []string{"walleye-qp1a.191105.004", "taimen-qq1a.191205.008"} {
		require.NoError(t, os.MkdirAll(filepath.Join(h.out, dir), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(h.out, "walleye.txt"), []byte("notes"), 0o644))

	require.NoError(t, h.mirror.Run(context.Background(), Options{Codename: "walleye", OutputDir: h.out}))

	assert.Equal(t, []string{"taimen-qq1a.191205.008", "walleye-" + walleyeTag}, h.entries())
}

func TestRun_SecondRunReusesCache(t *testing.T) {
	h := newHarness(t, walleyeArchive(t), nil)
	opts := Options{Codename: "walleye", OutputDir: h.out}

	require.NoError(t, h.mirror.Run(context.Background(), opts))
	require.NoError(t, h.mirror.Run(context.Background(), opts))

	assert.EqualValues(t, 1, h.downloads.Load())
	assert.Equal(t, []string{"walleye-" + walleyeTag}, h.entries())
}

func TestRun_CleanRemovesCache(t *testing.T) {
	h := newHarness(t, walleyeArchive(t), nil)

	require.NoError(t, h.mirror.Run(context.Background(), Options{Codename: "walleye", OutputDir: h.out, Clean: true}))

	assert.NoDirExists(t, filepath.Join(h.conf.CacheDir, "walleye"))
	assert.Equal(t, []string{"walleye-" + walleyeTag}, h.entries())
}

func TestRun_DryRunTouchesNothing(t *testing.T) {
	h := newHarness(t, walleyeArchive(t), nil)

	require.NoError(t, h.mirror.Run(context.Background(), Options{Codename: "walleye", OutputDir: h.out, DryRun: true}))

	want := fmt.Sprintf("device=walleye,release_tag=%s,package_url=%s/dl/walleye-%s-factory-0a1b2c3d.zip\n",
		walleyeTag, h.srv.URL, walleyeTag)
	assert.Equal(t, want, h.plan.String())

	assert.NoDirExists(t, h.out)
	assert.NoDirExists(t, h.conf.CacheDir)
	assert.EqualValues(t, 0, h.downloads.Load())

	_, ok, err := state.NewFileStore(h.conf.StatePrefix).Read("walleye")
	require.NoError(t, err)
	assert.False(t, ok, "dry run must not write state")
}

func TestRun_IntegrityFailureKeepsInstalledRelease(t *testing.T) {
	h := newHarness(t, walleyeArchive(t), map[string][]byte{"walleye": []byte("corrupted in transit")})

	previous := filepath.Join(h.out, "walleye-qp1a.191105.004")
	require.NoError(t, os.MkdirAll(previous, 0o755))

	err := h.mirror.Run(context.Background(), Options{Codename: "walleye", OutputDir: h.out})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrIntegrity))

	assert.Equal(t, []string{"walleye-qp1a.191105.004"}, h.entries())
}

func TestRun_AllDevicesContinuesPastFailure(t *testing.T) {
	h := newHarness(t, walleyeArchive(t), nil)
	h.conf.Devices = []string{"taimen", "walleye"}

	err := h.mirror.Run(context.Background(), Options{OutputDir: h.out})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNoMatch))
	assert.Contains(t, err.Error(), "taimen")

	assert.Equal(t, []string{"walleye-" + walleyeTag}, h.entries())
}

func TestRun_AllDevices(t *testing.T) {
	archives := map[string][]byte{
		"taimen":  testutil.FactoryZip(t, "taimen", walleyeTag),
		"walleye": testutil.FactoryZip(t, "walleye", walleyeTag),
	}
	h := newHarness(t, archives, nil)

	require.NoError(t, h.mirror.Run(context.Background(), Options{OutputDir: h.out}))
	assert.Equal(t, []string{"taimen-" + walleyeTag, "walleye-" + walleyeTag}, h.entries())
}

func TestRun_InvalidOptions(t *testing.T) {
	h := newHarness(t, walleyeArchive(t), nil)

	err := h.mirror.Run(context.Background(), Options{Codename: "walleye"})
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))

	h.conf.Devices = nil
	err = h.mirror.Run(context.Background(), Options{OutputDir: h.out})
	assert.True(t, errors.Is(err, errs.ErrInvalidArgument))
}

func TestRun_CanceledContext(t *testing.T) {
	h := newHarness(t, walleyeArchive(t), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.mirror.Run(ctx, Options{Codename: "walleye", OutputDir: h.out})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoDirExists(t, h.out)
}
