package capture

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"halosnap/memory"
	"halosnap/process"
)

func testData() []byte {
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i * 7)
	}
	// a long zero run, like most of guest RAM
	for i := 0x4000; i < 0x8000; i++ {
		data[i] = 0
	}
	return data
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "capture")
	c := New(4242, 0x7F0000000000, testData())

	if err := c.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != c.ID {
		t.Fatalf("id mismatch: %s vs %s", loaded.ID, c.ID)
	}
	if loaded.PID != 4242 || loaded.VirtualAddress != 0x7F0000000000 || loaded.Size != uint64(len(c.Data())) {
		t.Fatalf("unexpected metadata %+v", loaded.Metadata)
	}
	if !loaded.CapturedAt.Equal(c.CapturedAt) {
		t.Fatalf("captured_at mismatch: %s vs %s", loaded.CapturedAt, c.CapturedAt)
	}
	if !bytes.Equal(loaded.Data(), c.Data()) {
		t.Fatalf("image bytes differ after round trip")
	}
}

func TestLoadDetectsTruncation(t *testing.T) {
	dir := t.TempDir()
	if err := New(1, 0, testData()).Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, ImageFile))
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ImageFile), raw[:len(raw)/2], 0o644); err != nil {
		t.Fatalf("truncate image: %v", err)
	}

	if _, err := Load(dir); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoadRejectsOversizedMetadata(t *testing.T) {
	dir := t.TempDir()
	c := New(1, 0, testData())
	if err := c.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	meta := c.Metadata
	meta.Size = 1 << 62
	raw, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal metadata: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), raw, 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}

	if _, err := Load(dir); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestCaptureAsProcess(t *testing.T) {
	const va = process.ProcessMemoryAddress(0x10000)
	c := New(7, va, testData())

	got, err := c.ReadMemory(va+0x10, 4)
	if err != nil {
		t.Fatalf("ReadMemory: %v", err)
	}
	if !bytes.Equal(got, c.Data()[0x10:0x14]) {
		t.Fatalf("unexpected bytes %x", got)
	}

	if _, err := c.ReadMemory(va-1, 1); !errors.Is(err, process.ErrAddressNotMapped) {
		t.Fatalf("expected ErrAddressNotMapped, got %v", err)
	}
	if _, err := c.ReadMemory(va+process.ProcessMemoryAddress(len(c.Data())-2), 4); err == nil {
		t.Fatalf("read past the end must fail")
	}
	if err := c.WriteMemory(va, []byte{1}); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}

	// a capture can back a refreshable image
	img := memory.NewImage(c, va, process.ProcessMemorySize(len(c.Data())))
	if err := img.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !bytes.Equal(img.Bytes(), c.Data()) {
		t.Fatalf("refreshed image differs from capture")
	}
}

func TestFromImageCopies(t *testing.T) {
	data := testData()
	img := memory.NewImageFromBytes(0x1000, data)
	c := FromImage(3, img)

	data[0] ^= 0xFF
	if c.Data()[0] == data[0] {
		t.Fatalf("capture must not alias the image buffer")
	}
	if c.VirtualAddress != 0x1000 || c.PID != 3 {
		t.Fatalf("unexpected metadata %+v", c.Metadata)
	}
}
