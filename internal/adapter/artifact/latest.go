package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// Latest returns the file matching pattern in dir with the newest
// modification time. File names are not compared: a re-run on the same day
// overwrites its file and an older stamp may be the newest file. ok is false
// when nothing matches.
func Latest(dir, pattern string) (path string, ok bool, err error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return "", false, fmt.Errorf("glob %s: %w", pattern, err)
	}
	var newest os.FileInfo
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return "", false, fmt.Errorf("stat %s: %w", m, err)
		}
		if info.IsDir() {
			continue
		}
		if newest == nil || info.ModTime().After(newest.ModTime()) {
			newest, path = info, m
		}
	}
	return path, newest != nil, nil
}
