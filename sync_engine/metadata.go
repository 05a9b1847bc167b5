package sync_engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/officeforge/vbasync/vba_project/models"
)

// MetadataFileName is the per-directory metadata file recording the source
// document and the resolved encoding of every exported component. It is what
// keeps encoding resolution stable across separate runs.
const MetadataFileName = "vba_metadata.json"

// writeMetadata persists the project metadata next to the exported files.
func writeMetadata(dir string, document string, encodingMode string, encodings map[string]string, files map[string]models.FileRecord) error {
	meta := models.ProjectMetadata{
		SourceDocument: document,
		ExportDate:     time.Now(),
		EncodingMode:   encodingMode,
		Encodings:      encodings,
		Files:          files,
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	path := filepath.Join(dir, MetadataFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file %s: %w", path, err)
	}
	return nil
}

// readMetadata loads the metadata file if present. A missing file is not an
// error; a corrupt one is.
func readMetadata(dir string) (*models.ProjectMetadata, error) {
	path := filepath.Join(dir, MetadataFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file %s: %w", path, err)
	}

	var meta models.ProjectMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata file %s: %w", path, err)
	}
	return &meta, nil
}
