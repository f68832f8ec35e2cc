package fetch

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Extract unpacks zipPath into dir, leaving files that already exist
// untouched. Entries that would land outside dir are rejected. Each file is
// written under a .part name and renamed once complete, so a failed copy never
// leaves a file that later runs would skip.
func Extract(zipPath, dir string) (extracted, skipped int, err error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return 0, 0, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	root := filepath.Clean(dir)
	for _, zf := range zr.File {
		dest := filepath.Join(root, zf.Name)
		if dest != root && !strings.HasPrefix(dest, root+string(os.PathSeparator)) {
			return extracted, skipped, fmt.Errorf("zip entry %q escapes %s", zf.Name, dir)
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return extracted, skipped, fmt.Errorf("create %s: %w", dest, err)
			}
			continue
		}
		if _, err := os.Stat(dest); err == nil {
			skipped++
			continue
		}
		if err := extractFile(zf, dest); err != nil {
			return extracted, skipped, err
		}
		extracted++
	}
	return extracted, skipped, nil
}

func extractFile(zf *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
	}
	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", zf.Name, err)
	}
	defer rc.Close()

	part := dest + ".part"
	out, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("create %s: %w", part, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		os.Remove(part)
		return fmt.Errorf("extract %s: %w", zf.Name, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(part)
		return fmt.Errorf("close %s: %w", part, err)
	}
	if err := os.Rename(part, dest); err != nil {
		os.Remove(part)
		return fmt.Errorf("rename %s: %w", part, err)
	}
	return nil
}
