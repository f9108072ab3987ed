// Package checksum computes content hashes used to detect local file drift.
package checksum

import (
	"crypto/md5" //nolint:gosec // change detection only, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Bytes returns the hex MD5 digest of data
func Bytes(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// File returns the hex MD5 digest of the file at path
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ReadFile reads the whole file and returns its contents with their digest
func ReadFile(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, Bytes(data), nil
}
