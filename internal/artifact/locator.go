// Package artifact resolves which file an external producer process actually
// wrote. Downloader output naming is not fully predictable, so the locator
// tries a directory diff first and falls back to scanning the producer's
// captured output for destination markers.
package artifact

import (
	"os"
	"path/filepath"
	"strings"

	"transvox/internal/services"
)

// Snapshot captures a directory listing before an external producer runs.
type Snapshot struct {
	dir     string
	entries map[string]struct{}
}

// TakeSnapshot lists the directory's current entries. A missing directory
// yields an empty snapshot so the subsequent diff treats every entry as new.
func TakeSnapshot(dir string) Snapshot {
	snap := Snapshot{dir: dir, entries: make(map[string]struct{})}
	listing, err := os.ReadDir(dir)
	if err != nil {
		return snap
	}
	for _, entry := range listing {
		snap.entries[entry.Name()] = struct{}{}
	}
	return snap
}

// Dir returns the snapshotted directory.
func (s Snapshot) Dir() string { return s.dir }

// yt-dlp destination markers, scanned line by line as the fallback strategy.
const (
	markerDestination = "[download] Destination:"
	markerMerger      = "[Merger] Merging formats into"
	markerAlready     = "has already been downloaded"
)

// Locate determines the file the producer wrote. The directory-diff strategy
// wins when it finds exactly one new entry; otherwise the captured output is
// scanned for destination markers, each verified on disk before acceptance.
func Locate(snap Snapshot, output string) (string, error) {
	if path, ok := diffNewEntry(snap); ok {
		return path, nil
	}
	if path, ok := scanOutput(output); ok {
		return path, nil
	}
	return "", services.Wrap(
		services.ErrArtifactNotFound, "artifact", "locate",
		"downloader finished but no output file could be determined", nil)
}

func diffNewEntry(snap Snapshot) (string, bool) {
	listing, err := os.ReadDir(snap.dir)
	if err != nil {
		return "", false
	}
	var fresh []string
	for _, entry := range listing {
		if _, seen := snap.entries[entry.Name()]; !seen {
			fresh = append(fresh, entry.Name())
		}
	}
	if len(fresh) != 1 {
		return "", false
	}
	return filepath.Join(snap.dir, fresh[0]), true
}

func scanOutput(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.Contains(line, markerDestination):
			candidate := strings.TrimSpace(line[strings.Index(line, markerDestination)+len(markerDestination):])
			if fileExists(candidate) {
				return candidate, true
			}
		case strings.Contains(line, markerMerger):
			// Path is quoted: [Merger] Merging formats into "out.mp4"
			parts := strings.SplitN(line, `"`, 3)
			if len(parts) >= 2 && fileExists(parts[1]) {
				return parts[1], true
			}
		case strings.Contains(line, markerAlready):
			candidate := strings.TrimPrefix(line, "[download]")
			candidate = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(candidate), markerAlready))
			if fileExists(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
