package exporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"orderlens/internal/errors"
	"orderlens/pkg/contracts/domain"
)

// WriteRunMeta serializes the run metadata record to path as
// pretty-printed JSON. The file is rewritten whole on every run.
func WriteRunMeta(ctx context.Context, path string, meta domain.RunMetadata, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError(fmt.Sprintf("create directory for %s", path), err)
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.NewStorageError("encode run metadata", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewStorageError(fmt.Sprintf("write run metadata %s", path), err)
	}

	logger.InfoContext(ctx, "wrote run metadata",
		slog.String("path", path),
		slog.String("run_id", meta.RunID))

	return nil
}

// ReadRunMeta loads a previously written run metadata record. The report
// stage uses it to echo run facts into the markdown summary.
func ReadRunMeta(path string) (domain.RunMetadata, error) {
	var meta domain.RunMetadata

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return meta, errors.NewNotFoundError(path, err)
		}
		return meta, errors.NewStorageError(fmt.Sprintf("read run metadata %s", path), err)
	}

	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, errors.NewParsingError(fmt.Sprintf("decode run metadata %s", path), err)
	}

	return meta, nil
}
