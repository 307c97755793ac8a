package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"voice-insight/pkg/models"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to a plain ASCII file name that cannot
// escape its directory. The result may be empty.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range name {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	name = strings.ReplaceAll(b.String(), "/", " ")
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// ClipStore writes uploaded clips into one directory. A clip with the
// same sanitized name replaces the previous file.
type ClipStore struct {
	dir string
}

func NewClipStore(dir string) *ClipStore {
	return &ClipStore{dir: dir}
}

// Write stores clip and returns a copy carrying the sanitized name and
// final path.
func (s *ClipStore) Write(ctx context.Context, clip *models.UploadedClip) (*models.UploadedClip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := SecureFilename(clip.Filename)
	if name == "" {
		name = "upload-" + clip.ID
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	dst := filepath.Join(s.dir, name)
	if err := writeAtomic(s.dir, dst, clip.Data); err != nil {
		return nil, fmt.Errorf("write clip %s: %w", name, err)
	}

	stored := *clip
	stored.Filename = name
	stored.Path = dst
	return &stored, nil
}

// writeAtomic replaces dst in one rename so concurrent readers of a
// same-named clip never observe a partial file.
func writeAtomic(dir, dst string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
