package configfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"model-promotion-service/internal/core/domain"
	ports "model-promotion-service/internal/core/ports/output"
)

// Extensions lists the record file extensions, in lookup order.
var Extensions = []string{".json", ".yaml", ".yml"}

type store struct {
	dir string
}

// NewStore returns a RecordSource over <dir>/<environment>/*.{json,yaml,yml}.
func NewStore(dir string) ports.RecordSource {
	return &store{dir: dir}
}

// IsRecordFile reports whether path has a record file extension.
func IsRecordFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (s *store) envDir(env domain.Environment) string {
	return filepath.Join(s.dir, string(env))
}

// ListEnvironment returns the record files of env sorted by name. A missing
// environment directory has no records.
func (s *store) ListEnvironment(ctx context.Context, env domain.Environment) ([]string, error) {
	entries, err := os.ReadDir(s.envDir(env))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list %s records: %w", env, err)
	}

	paths := []string{}
	for _, e := range entries {
		if e.IsDir() || !IsRecordFile(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(s.envDir(env), e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *store) LoadEnvironment(ctx context.Context, env domain.Environment) ([]*domain.EnvironmentConfig, error) {
	paths, err := s.ListEnvironment(ctx, env)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.EnvironmentConfig, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := s.LoadFile(ctx, p)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// LoadFile decodes one record. Unknown keys and trailing content are
// rejected with domain.ErrMalformedRecord.
func (s *store) LoadFile(ctx context.Context, path string) (*domain.EnvironmentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := Decode(path, data)
	if err != nil {
		return nil, err
	}
	cfg.Source = path
	return cfg, nil
}

// Decode parses record content, picking the format from the file extension.
func Decode(path string, data []byte) (*domain.EnvironmentConfig, error) {
	var cfg domain.EnvironmentConfig
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	default:
		err = decodeJSON(data, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, domain.ErrMalformedRecord, err)
	}

	cfg.Normalize()
	return &cfg, nil
}

func decodeJSON(data []byte, cfg *domain.EnvironmentConfig) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected content after record")
	}
	return nil
}

func decodeYAML(data []byte, cfg *domain.EnvironmentConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if err == io.EOF {
			return errors.New("empty record")
		}
		return err
	}
	if err := dec.Decode(&yaml.Node{}); err != io.EOF {
		return errors.New("unexpected document after record")
	}
	return nil
}

// Encode renders a record in the format matching the file extension.
func Encode(path string, cfg *domain.EnvironmentConfig) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// Write replaces the record at path through a temporary file in the same
// directory.
func (s *store) Write(ctx context.Context, path string, cfg *domain.EnvironmentConfig) error {
	data, err := Encode(path, cfg)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// PathFor returns the existing file holding the record of modelName, or
// <dir>/<env>/<modelName>.json when there is none.
func (s *store) PathFor(env domain.Environment, modelName string) string {
	for _, ext := range Extensions {
		p := filepath.Join(s.envDir(env), modelName+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// Files are not required to be named after their model.
	paths, _ := s.ListEnvironment(context.Background(), env)
	for _, p := range paths {
		rec, err := s.LoadFile(context.Background(), p)
		if err == nil && rec.ModelName == modelName {
			return p
		}
	}

	return filepath.Join(s.envDir(env), modelName+".json")
}

// Ensure interface compliance
var _ ports.RecordSource = (*store)(nil)
