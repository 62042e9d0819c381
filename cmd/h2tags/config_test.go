package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/h2tags/pkg/blam"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
maps_dir: /games/halo2/maps
shared_maps:
  shared: /games/halo2/maps/shared.map
  single_player_shared: /games/halo2/maps/single_player_shared.map
workers: 4
log_level: debug
log_format: json
server_address: 0.0.0.0:9090
offsets:
  location_shift: 30
  location_mask: 0xC0000000
  value_mask: 0x3FFFFFFF
  absent: [0, 0x7FFFFFFF, 0xFFFFFFFF]
`)
	c, err := loadConfigFile(path)
	if err != nil {
		t.Fatalf("loadConfigFile: %v", err)
	}
	if c.MapsDir != "/games/halo2/maps" || c.LogLevel != "debug" || c.LogFormat != "json" || c.ServerAddress != "0.0.0.0:9090" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.Workers == nil || *c.Workers != 4 {
		t.Fatalf("workers: got %v want 4", c.Workers)
	}
	if len(c.SharedMaps) != 2 {
		t.Fatalf("shared maps: got %d want 2", len(c.SharedMaps))
	}
	if c.Offsets == nil {
		t.Fatal("expected offsets table")
	}
	def := blam.DefaultOffsetTable()
	if c.Offsets.LocationShift != def.LocationShift || c.Offsets.LocationMask != def.LocationMask || c.Offsets.ValueMask != def.ValueMask {
		t.Fatalf("offsets: got %+v want %+v", *c.Offsets, def)
	}
	if len(c.Offsets.Absent) != 3 || c.Offsets.Absent[2] != 0xFFFFFFFF {
		t.Fatalf("absent: got %v", c.Offsets.Absent)
	}
}

func TestLoadConfigFileRejectsBadOffsets(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
offsets:
  location_shift: 30
  location_mask: 0xC0000000
  value_mask: 0xFFFFFFFF
`)
	if _, err := loadConfigFile(path); err == nil {
		t.Fatal("expected overlapping masks to be rejected")
	}
	if _, err := loadConfigFile(writeConfig(t, "workers: [1")); err == nil {
		t.Fatal("expected malformed YAML to be rejected")
	}
	if _, err := loadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestSharedFiles(t *testing.T) {
	t.Parallel()

	c := Config{SharedMaps: map[string]string{
		"shared":   "/cfg/shared.map",
		"mainmenu": "/cfg/mainmenu.map",
	}}
	got, err := sharedFiles(c, []string{"shared=/flag/shared.map"})
	if err != nil {
		t.Fatalf("sharedFiles: %v", err)
	}
	if got[blam.Shared] != "/flag/shared.map" {
		t.Fatalf("flag should win: got %q", got[blam.Shared])
	}
	if got[blam.MainMenu] != "/cfg/mainmenu.map" {
		t.Fatalf("config value lost: got %q", got[blam.MainMenu])
	}

	for _, flags := range [][]string{{"shared"}, {"bogus=/x.map"}, {"local=/x.map"}} {
		if _, err := sharedFiles(Config{}, flags); err == nil {
			t.Fatalf("sharedFiles(%v): expected error", flags)
		}
	}
	if _, err := sharedFiles(Config{SharedMaps: map[string]string{"nope": "/x"}}, nil); err == nil {
		t.Fatal("expected unknown config data file error")
	}
}

// TestApplyMapConfig mutates the package-level flag variables and so does
// not run in parallel.
func TestApplyMapConfig(t *testing.T) {
	four := 4
	c := Config{MapsDir: "/cfg/maps", Workers: &four}

	run := func(args ...string) {
		t.Helper()
		mapsDir, workers = "", 0
		cmd := &cli.Command{
			Name:  "test",
			Flags: mapFlags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				applyMapConfig(cmd, c)
				return nil
			},
		}
		if err := cmd.Run(context.Background(), append([]string{"test"}, args...)); err != nil {
			t.Fatalf("run: %v", err)
		}
	}

	run()
	if mapsDir != "/cfg/maps" || workers != 4 {
		t.Fatalf("config defaults not applied: maps-dir %q workers %d", mapsDir, workers)
	}

	run("--maps-dir", "/flag/maps", "--workers", "2")
	if mapsDir != "/flag/maps" || workers != 2 {
		t.Fatalf("explicit flags overridden: maps-dir %q workers %d", mapsDir, workers)
	}
}
