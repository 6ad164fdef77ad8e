// Package snapshot provides file-level inspection of export directory trees:
// content hashing, tree listing, and snapshot-to-snapshot diffing.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
)

// TimeFormat is the timestamp layout used in diff and manifest artifacts.
// Second precision, always UTC.
const TimeFormat = "2006-01-02T15:04:05Z"

// hashChunkSize bounds how much of a file is held in memory while hashing.
const hashChunkSize = 64 * 1024

// FormatTime renders t in the artifact timestamp layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// HashFile computes the SHA-256 hex digest of the file at path, reading in
// bounded chunks so memory stays flat regardless of file size.
func HashFile(fsys afero.Fs, path string) (string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
