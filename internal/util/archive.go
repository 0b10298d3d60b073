package util

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// ArchiveEntry is a file on disk and the name it gets inside the zip.
type ArchiveEntry struct {
	Name string
	Path string
}

// CreateArchive zips entries flat into output, sorted by name. Names must
// be unique.
func CreateArchive(entries []ArchiveEntry, output string) (err error) {
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}

	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	z := zip.NewWriter(out)
	defer func() {
		if cerr := z.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sorted := append([]ArchiveEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	seen := map[string]bool{}
	for _, e := range sorted {
		if seen[e.Name] {
			return fmt.Errorf("archive: duplicate entry %q", e.Name)
		}
		seen[e.Name] = true

		if err := addFileToZip(z, e); err != nil {
			return err
		}
	}

	return nil
}

func addFileToZip(z *zip.Writer, e ArchiveEntry) error {
	f, err := os.Open(e.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			log.Printf("error closing input file %s: %v", e.Path, cerr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.ToSlash(e.Name)
	header.Method = zip.Deflate

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}
