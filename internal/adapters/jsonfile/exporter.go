// Package jsonfile reads a site collection from a JSON export on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/samirrijal/sacredsites/internal/core/domain"
)

// Exporter implements ports.SiteExporter over a file holding a JSON array of sites.
type Exporter struct {
	Path string
}

// New creates an exporter for path.
func New(path string) *Exporter {
	return &Exporter{Path: path}
}

// Export decodes the whole file. Records are not validated here.
func (e *Exporter) Export(ctx context.Context) ([]domain.Site, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(e.Path)
	if err != nil {
		return nil, &domain.FetchError{Op: "open " + e.Path, Err: err}
	}
	defer f.Close()

	var sites []domain.Site
	if err := json.NewDecoder(f).Decode(&sites); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", e.Path, err)
	}
	return sites, nil
}
