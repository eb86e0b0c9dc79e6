package testutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/klauspost/compress/zip"
)

// Entry is one file inside a generated archive.
type Entry struct {
	Name string
	Data []byte
}

// BuildZip returns a zip archive holding entries in order.
func BuildZip(t *testing.T, entries ...Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("zip write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// FactoryZip mimics a vendor factory archive: top-level bootloader and radio
// images, a flash script, and a nested image archive holding partitions.
func FactoryZip(t *testing.T, codename, tag string) []byte {
	t.Helper()
	inner := BuildZip(t,
		Entry{Name: "android-info.txt", Data: []byte("require board=" + codename)},
		Entry{Name: "boot.img", Data: []byte("boot-" + tag)},
		Entry{Name: "dtbo.img", Data: []byte("dtbo-" + tag)},
		Entry{Name: "system.img", Data: []byte("system-" + tag)},
		Entry{Name: "vbmeta.img", Data: []byte("vbmeta-" + tag)},
		Entry{Name: "vendor.img", Data: []byte("vendor-" + tag)},
	)

	dir := codename + "-" + tag + "/"
	return BuildZip(t,
		Entry{Name: dir},
		Entry{Name: dir + "bootloader-" + codename + "-mw8998-003.img", Data: []byte("bootloader")},
		Entry{Name: dir + "radio-" + codename + "-g8998.img", Data: []byte("radio")},
		Entry{Name: dir + "flash-all.sh", Data: []byte("#!/bin/sh\n")},
		Entry{Name: dir + "image-" + codename + "-" + tag + ".zip", Data: inner},
	)
}

func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
