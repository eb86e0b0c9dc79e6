package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	DefaultPageURL = "https://developers.google.com/android/images"
	DefaultTimeout = 10 * time.Second

	LayoutFlash  = "flash"
	LayoutLegacy = "legacy"

	PolicyTagShape = "tag-shape"
	PolicyCarrier  = "carrier"
	PolicyNone     = "none"
)

// Config is built by the CLI layer and handed to every component at
// construction; no component reads globals.
type Config struct {
	PageURL        string            `yaml:"page_url"`
	Cookies        map[string]string `yaml:"cookies"`
	Timeout        time.Duration     `yaml:"timeout"`
	CacheDir       string            `yaml:"cache_dir"`
	StatePrefix    string            `yaml:"state_prefix"`
	Devices        []string          `yaml:"devices"`
	Layout         string            `yaml:"layout"`
	Policy         string            `yaml:"policy"`
	CarrierMarkers []string          `yaml:"carrier_markers"`
	Images         []string          `yaml:"images"`
}

// KnownDevices is the codename set processed when mirror runs without --name.
var KnownDevices = []string{
	"coral",
	"flame",
	"crosshatch",
	"blueline",
	"sargo",
	"bonito",
	"taimen",
	"walleye",
}

// DefaultImages is the allow-list of partition images pulled out of the
// nested image archive.
var DefaultImages = []string{
	"boot.img",
	"dtbo.img",
	"modem.img",
	"vbmeta.img",
	"vendor.img",
}

func baseDir(sub ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(append([]string{home}, sub...)...)
}

func Default() Config {
	return Config{
		PageURL:        DefaultPageURL,
		Cookies:        map[string]string{"devsite_wall_acks": "nexus-image-tos"},
		Timeout:        DefaultTimeout,
		CacheDir:       baseDir(".cache", "otawatch"),
		StatePrefix:    filepath.Join(baseDir(".local", "state", "otawatch"), "version_"),
		Devices:        append([]string(nil), KnownDevices...),
		Layout:         LayoutFlash,
		Policy:         PolicyTagShape,
		CarrierMarkers: []string{"Verizon"},
		Images:         append([]string(nil), DefaultImages...),
	}
}
