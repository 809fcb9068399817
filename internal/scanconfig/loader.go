package scanconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/livermore/internal/contracts"
)

// Load reads the YAML criteria file. A missing file yields Default().
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read criteria %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes criteria YAML over the defaults, so omitted keys keep their
// production values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode criteria: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// Criteria returns the snapshot criteria block for cfg
func (c *Config) Criteria() (contracts.Criteria, error) {
	hash, err := Hash(c)
	if err != nil {
		return contracts.Criteria{}, err
	}
	return contracts.Criteria{
		LookbackDays: c.Breakout.LookbackDays,
		Description:  c.Meta.Description,
		Hash:         hash,
	}, nil
}
