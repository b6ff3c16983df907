package state

import (
	"context"
	"errors"
	"fmt"
	"github.com/shimmeringbee/somfycul/rollingcode"
	"gopkg.in/yaml.v3"
	"os"
	"path/filepath"
	"strings"
)

var _ Gateway = (*FileGateway)(nil)

const DefaultFilePermissions = 0600

// FileGateway keeps one YAML document per identity in Directory.
type FileGateway struct {
	Directory string

	locks identityLocks
}

type fileRecord struct {
	EncKey      int64 `yaml:"enc_key"`
	RollingCode int64 `yaml:"rolling_code"`
	CurrentPos  *int  `yaml:"current_pos"`
}

func (g *FileGateway) path(id string) (string, error) {
	if len(id) == 0 || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentity, id)
	}

	return filepath.Join(g.Directory, id+".yaml"), nil
}

func (g *FileGateway) Load(_ context.Context, id string) (Record, bool, error) {
	path, err := g.path(id)
	if err != nil {
		return Record{}, false, err
	}

	unlock := g.locks.lock(id)
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, false, nil
		}

		return Record{}, false, fmt.Errorf("%w: failed to read '%s': %w", ErrPersistenceFailure, path, err)
	}

	var fr fileRecord
	if err := yaml.Unmarshal(data, &fr); err != nil {
		return Record{}, false, fmt.Errorf("%w: failed to parse '%s': %w", ErrInvalidRecord, path, err)
	}

	if err := validateRecord(fr.EncKey, fr.RollingCode, fr.CurrentPos); err != nil {
		return Record{}, false, err
	}

	return Record{
		Rolling:  rollingcode.State{Key: uint8(fr.EncKey), Code: uint16(fr.RollingCode)},
		Position: fr.CurrentPos,
	}, true, nil
}

func (g *FileGateway) Save(_ context.Context, id string, r Record) error {
	path, err := g.path(id)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(fileRecord{
		EncKey:      int64(r.Rolling.Key),
		RollingCode: int64(r.Rolling.Code),
		CurrentPos:  r.Position,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to marshal record: %w", ErrPersistenceFailure, err)
	}

	unlock := g.locks.lock(id)
	defer unlock()

	if err := safeWriteFile(path, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
	}

	return nil
}
