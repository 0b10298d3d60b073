package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TempSuffix marks outputs that are still being written.
const TempSuffix = ".tmp"

// CleanupInterrupted removes half-written outputs from outputDir after a
// cancelled run, then the directory itself if nothing is left. Call it
// only once every writer has stopped.
func CleanupInterrupted(outputDir string) int {
	n := CleanupUnfinishedTempFiles(outputDir)
	RemoveIfEmpty(outputDir)

	return n
}

// CleanupUnfinishedTempFiles deletes every *.tmp file directly inside dir
// and returns how many were removed.
func CleanupUnfinishedTempFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, TempSuffix) {
			continue
		}

		full := filepath.Join(dir, name)
		if err := os.Remove(full); err != nil {
			fmt.Printf("Error cleaning up %s: %v\n", full, err)
			continue
		}
		removed++
	}

	return removed
}

func RemoveIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	if len(entries) == 0 {
		if err := os.Remove(dir); err == nil {
			fmt.Printf("Removed empty output folder: %s\n", dir)
		}
	}
}

// WriteFileAtomic writes data to path via path+TempSuffix and a rename.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + TempSuffix
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return nil
}
