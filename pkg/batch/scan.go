// Package batch runs the per-document pipeline over a folder of PDFs with
// bounded concurrency, isolating per-document failures and rolling results
// into a completeness score.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/docveil/docveil/pkg/models"
)

// ScanFolder lists the PDFs eligible for a batch run. Files already carrying
// the masked-output prefix are skipped, so re-scanning a processed folder is
// idempotent. Pure discovery: nothing is mutated.
func ScanFolder(folderPath, outputPrefix string) (*models.ScanResult, error) {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", folderPath, err)
	}

	var files []models.ScanFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		if strings.HasPrefix(name, outputPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", name, err)
		}
		files = append(files, models.ScanFile{
			Name:      name,
			Size:      info.Size(),
			SizeHuman: humanize.Bytes(uint64(info.Size())),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return &models.ScanResult{
		FolderPath: folderPath,
		Files:      files,
		Count:      len(files),
	}, nil
}
