package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"halosnap/capture"
	"halosnap/engine/enginetest"
)

// fixture writes a capture of the synthetic window and a config that points
// at its globals
func fixture(t *testing.T) (configPath, captureDir string) {
	t.Helper()
	dir := t.TempDir()

	a := enginetest.Addresses
	configPath = filepath.Join(dir, "halosnap.toml")
	body := fmt.Sprintf(`
[addresses]
object_pool_header = %d
player_pool_header = %d
tag_header = %d
player_globals = %d
game_globals = %d
time_globals = %d
`, a.ObjectPoolHeader, a.PlayerPoolHeader, a.TagHeader, a.PlayerGlobals, a.GameGlobals, a.TimeGlobals)
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	captureDir = filepath.Join(dir, "capture")
	if err := capture.New(1, 0, enginetest.Window()).Save(captureDir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return configPath, captureDir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := App()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"halosnap", "--no-color"}, args...))
	return out.String(), err
}

func TestInspectTable(t *testing.T) {
	configPath, captureDir := fixture(t)

	out, err := run(t, "--config", configPath, "inspect", "--from", captureDir)
	if err != nil {
		t.Fatalf("inspect: %v\n%s", err, out)
	}
	for _, want := range []string{"Difficulty: 2", "cyborg", "bipd", "Chief"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestInspectYAML(t *testing.T) {
	configPath, captureDir := fixture(t)

	out, err := run(t, "--config", configPath, "--output", "yaml", "inspect", "--from", captureDir)
	if err != nil {
		t.Fatalf("inspect: %v\n%s", err, out)
	}
	if !strings.Contains(out, "stage: Complete") || !strings.Contains(out, "tag: cyborg") {
		t.Fatalf("unexpected yaml:\n%s", out)
	}
}

func TestInspectWithDefaultAddressesFails(t *testing.T) {
	_, captureDir := fixture(t)

	_, err := run(t, "inspect", "--from", captureDir)
	if err == nil || !strings.Contains(err.Error(), "game state not ready") {
		t.Fatalf("expected a validation failure, got %v", err)
	}
}

func TestDumpFromCapture(t *testing.T) {
	configPath, captureDir := fixture(t)

	out, err := run(t, "--config", configPath, "dump", "--from", captureDir, "--index", "0")
	if err != nil {
		t.Fatalf("dump: %v\n%s", err, out)
	}
	if !strings.Contains(out, "guarded") || !strings.Contains(out, "tag:cyborg") {
		t.Fatalf("unexpected dump:\n%s", out)
	}
}

func TestSnapshotRequiresTarget(t *testing.T) {
	_, err := run(t, "snapshot")
	if err == nil || !strings.Contains(err.Error(), "--pid") {
		t.Fatalf("expected a missing pid error, got %v", err)
	}

	_, err = run(t, "snapshot", "--pid", "1", "--va", "zz")
	if err == nil || !strings.Contains(err.Error(), "--va") {
		t.Fatalf("expected a bad address error, got %v", err)
	}
}

func TestLocateFromCapture(t *testing.T) {
	_, captureDir := fixture(t)

	out, err := run(t, "locate", "--from", captureDir)
	if err != nil {
		t.Fatalf("locate: %v\n%s", err, out)
	}
	a := enginetest.Addresses
	for _, want := range []string{
		`pool "object"`,
		`pool "players"`,
		"tag header at 0x00000100",
		fmt.Sprintf("object_pool_header = %d", a.ObjectPoolHeader),
		fmt.Sprintf("player_pool_header = %d", a.PlayerPoolHeader),
		fmt.Sprintf("tag_header = %d", a.TagHeader),
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output is missing %q:\n%s", want, out)
		}
	}
}
