package release

import (
	"os"

	"github.com/adamancini/stewardctl/internal/failure"
)

// BinaryMode grants the owner read, write and execute, and nobody else anything.
const BinaryMode os.FileMode = 0700

// BinaryReplacer moves a fully downloaded binary onto the canonical path.
type BinaryReplacer struct {
	currentPath string
}

// NewBinaryReplacer creates a replacer for the binary at currentPath.
func NewBinaryReplacer(currentPath string) *BinaryReplacer {
	return &BinaryReplacer{currentPath: currentPath}
}

// Replace sets permissions on newBinary and renames it over the current
// binary. The rename is atomic within a filesystem, so the canonical path
// holds either the old binary or the complete new one. newBinary is removed
// on failure.
func (r *BinaryReplacer) Replace(newBinary string) error {
	if err := os.Chmod(newBinary, BinaryMode); err != nil {
		_ = os.Remove(newBinary)
		return failure.New(failure.KindFilesystem, "set binary permissions", err)
	}

	if err := os.Rename(newBinary, r.currentPath); err != nil {
		_ = os.Remove(newBinary)
		return failure.New(failure.KindFilesystem, "replace binary", err)
	}

	return nil
}
