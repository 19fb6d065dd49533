package credential

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// SaveUpload validates an uploaded credential file and writes it into the
// repository tier. The registry is not touched; the new file becomes
// eligible on the next rescan. Overwriting an existing identity is allowed
// and is a no-op for any slot already bound to it.
func (s *Store) SaveUpload(name string, data []byte) (Record, error) {
	if err := validateName(name); err != nil {
		return Record{}, err
	}
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return Record{}, fmt.Errorf("%w: body is not valid JSON", ErrInvalidCredentialFile)
	}

	if err := os.MkdirAll(s.repositoryDir, 0o700); err != nil {
		return Record{}, fmt.Errorf("prepare repository directory: %w", err)
	}

	path := filepath.Join(s.repositoryDir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Record{}, fmt.Errorf("write credential file %s: %w", name, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	s.logger.Info("credential file uploaded",
		slog.String("name", name),
		slog.Int("size", len(data)))
	s.MarkStale()

	return Record{
		Name: name,
		Path: abs,
		Size: int64(len(data)),
		Tier: TierRepository,
	}, nil
}
