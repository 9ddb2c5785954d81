package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/taskflow/internal/domain/model"
)

// Fixture formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Fixture is the on-disk shape of a roster and its work items.
type Fixture struct {
	Members []model.Member   `json:"members" yaml:"members"`
	Items   []model.WorkItem `json:"items" yaml:"items"`
}

// FormatFromPath infers the fixture format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Decode reads a fixture in the given format.
func Decode(r io.Reader, format string) (Fixture, error) {
	var f Fixture
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&f); err != nil {
			return Fixture{}, decodeError("yaml", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&f); err != nil {
			return Fixture{}, decodeError("json", err)
		}
	default:
		return Fixture{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return f, nil
}

func decodeError(format string, err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: empty %s fixture", ErrInvalidRoster, format)
	}
	return fmt.Errorf("decode %s fixture: %w", format, err)
}

// Encode writes f in the given format.
func Encode(w io.Writer, f Fixture, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode yaml fixture: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("encode json fixture: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// LoadFile reads a fixture file, choosing the format from its extension.
func LoadFile(path string) (Fixture, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return Fixture{}, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("open fixture: %w", err)
	}
	defer fh.Close()
	return Decode(fh, format)
}

// ReloadFile replaces the store contents with the fixture at path.
func ReloadFile(ctx context.Context, s Store, path string) error {
	f, err := LoadFile(path)
	if err != nil {
		return err
	}
	return s.Replace(ctx, f.Members, f.Items)
}
