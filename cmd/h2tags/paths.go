package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const envMapsDir = "H2TAGS_MAPS_DIR"

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = isTTY

func resolveMapPath(mapFlag string, mapsDir string, stdin io.Reader, stderr io.Writer) (string, error) {
	mapFlag = strings.TrimSpace(mapFlag)
	if mapFlag != "" {
		return filepath.Clean(mapFlag), nil
	}

	dir := strings.TrimSpace(mapsDir)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(envMapsDir))
	}
	if dir == "" {
		return "", fmt.Errorf("--map or --maps-dir is required unless %s is set", envMapsDir)
	}

	maps, err := discoverMaps(dir)
	if err != nil {
		return "", err
	}
	switch len(maps) {
	case 0:
		return "", fmt.Errorf("no .map files found in %s", dir)
	case 1:
		_, _ = fmt.Fprintf(stderr, "h2tags: using map %s\n", maps[0])
		return maps[0], nil
	default:
		if !stdinIsTTY() {
			return "", fmt.Errorf(
				"multiple maps found in %s but stdin is not interactive; set --map",
				dir,
			)
		}
		return selectMapInteractively(dir, maps, stdin, stderr)
	}
}

func discoverMaps(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("maps directory is empty")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("maps path is not a directory: %s", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	maps := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".map") {
			continue
		}
		maps = append(maps, filepath.Join(dir, name))
	}
	sort.Strings(maps)
	return maps, nil
}

func selectMapInteractively(dir string, maps []string, stdin io.Reader, stderr io.Writer) (string, error) {
	if len(maps) == 0 {
		return "", fmt.Errorf("no maps available in %s", dir)
	}

	_, _ = fmt.Fprintf(stderr, "h2tags: select a map from %s\n", dir)
	for i, m := range maps {
		_, _ = fmt.Fprintf(stderr, "%d. %s\n", i+1, displayName(dir, m))
	}

	reader := bufio.NewReader(stdin)
	for {
		_, _ = fmt.Fprintf(stderr, "h2tags: enter selection [1-%d]: ", len(maps))
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no selection provided on stdin; set --map")
			}
			continue
		}

		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 1 || idx > len(maps) {
			_, _ = fmt.Fprintf(stderr, "h2tags: invalid selection %q\n", line)
			if errors.Is(err, io.EOF) {
				return "", errors.New("invalid selection provided on stdin; set --map")
			}
			continue
		}
		return maps[idx-1], nil
	}
}

func displayName(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return filepath.Base(path)
	}
	return rel
}

// resolveOutDir creates dir, defaulting to ./<map name>_<tag name> under
// the working directory.
func resolveOutDir(outFlag, mapName, tagName string) (string, error) {
	out := strings.TrimSpace(outFlag)
	if out == "" {
		base := strings.TrimSuffix(filepath.Base(mapName), filepath.Ext(mapName))
		out = filepath.Join(".", base+"_"+sanitize(tagName))
	}
	out = filepath.Clean(out)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return "", err
	}
	return out, nil
}

// sanitize turns a tag name such as `textures\rock` into one path element.
func sanitize(name string) string {
	r := strings.NewReplacer(`\`, "_", "/", "_", " ", "_", ":", "_")
	if s := r.Replace(strings.TrimSpace(name)); s != "" {
		return s
	}
	return "tag"
}

func isTTY() bool {
	st, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}
