// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package config carrega e valida a configuração YAML do nvault-server.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig representa a configuração completa do nvault-server.
type ServerConfig struct {
	Server  ServerListen  `yaml:"server"`
	Storage StorageInfo   `yaml:"storage"`
	Logging LoggingInfo   `yaml:"logging"`
	Janitor JanitorConfig `yaml:"janitor"`
	Mirror  MirrorConfig  `yaml:"mirror"`
}

// ServerListen contém o endereço de escuta do server.
type ServerListen struct {
	Listen string `yaml:"listen"`
}

// StorageInfo contém configurações do diretório de armazenamento.
type StorageInfo struct {
	BaseDir string `yaml:"base_dir"`

	// MaxUsedPercent rejeita novos BACKUPs quando o uso do disco do
	// filesystem de base_dir ultrapassa este percentual. 0 desabilita.
	MaxUsedPercent float64 `yaml:"max_used_percent"`
}

// LoggingInfo contém configurações de logging.
type LoggingInfo struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// JanitorConfig configura a varredura periódica de arquivos .tmp órfãos
// deixados por conexões mortas no meio de um BACKUP.
type JanitorConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Schedule string        `yaml:"schedule"` // cron expression (default: @hourly)
	TmpTTL   time.Duration `yaml:"tmp_ttl"`  // idade mínima para remoção (default: 24h)
}

// MirrorConfig configura o espelhamento assíncrono de backups para S3
// (ou storage compatível via endpoint customizado).
type MirrorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`   // opcional, para MinIO e afins
	AccessKey string `yaml:"access_key"` // opcional; vazio usa a credential chain default
	SecretKey string `yaml:"secret_key"`
}

// DefaultServerConfig retorna a configuração usada quando nenhum arquivo
// é fornecido: escuta na porta 1234 e grava em ./vault-data.
func DefaultServerConfig() *ServerConfig {
	cfg := &ServerConfig{
		Server:  ServerListen{Listen: ":1234"},
		Storage: StorageInfo{BaseDir: "vault-data"},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadServerConfig lê e valida o arquivo YAML de configuração do server.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading server config: %w", err)
	}

	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating server config: %w", err)
	}

	return &cfg, nil
}

// OverridePort troca a porta do endereço de escuta, preservando o host.
// Usado pelo argumento posicional de porta da CLI.
func (c *ServerConfig) OverridePort(port int) {
	host := ""
	if idx := strings.LastIndex(c.Server.Listen, ":"); idx >= 0 {
		host = c.Server.Listen[:idx]
	}
	c.Server.Listen = host + ":" + strconv.Itoa(port)
}

func (c *ServerConfig) validate() error {
	if c.Server.Listen == "" {
		c.Server.Listen = ":1234"
	}
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	if c.Storage.MaxUsedPercent < 0 || c.Storage.MaxUsedPercent > 100 {
		return fmt.Errorf("storage.max_used_percent must be between 0 and 100, got %v", c.Storage.MaxUsedPercent)
	}

	if c.Mirror.Enabled {
		if c.Mirror.Bucket == "" {
			return fmt.Errorf("mirror.bucket is required when mirror is enabled")
		}
		if c.Mirror.Region == "" && c.Mirror.Endpoint == "" {
			return fmt.Errorf("mirror.region or mirror.endpoint is required when mirror is enabled")
		}
		if (c.Mirror.AccessKey == "") != (c.Mirror.SecretKey == "") {
			return fmt.Errorf("mirror.access_key and mirror.secret_key must be set together")
		}
	}

	c.applyDefaults()
	return nil
}

func (c *ServerConfig) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Janitor.Enabled {
		if c.Janitor.Schedule == "" {
			c.Janitor.Schedule = "@hourly"
		}
		if c.Janitor.TmpTTL <= 0 {
			c.Janitor.TmpTTL = 24 * time.Hour
		}
	}
}

// ParseByteSize converte strings como "512kb", "8mb", "1gb" (ou bytes puros)
// em um número de bytes.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	// Ordenado do sufixo mais longo para o mais curto
	// para evitar que "mb" matche como "b"
	type suffix struct {
		s string
		m int64
	}
	suffixes := []suffix{
		{"gb", 1024 * 1024 * 1024},
		{"mb", 1024 * 1024},
		{"kb", 1024},
		{"b", 1},
	}

	for _, sfx := range suffixes {
		if strings.HasSuffix(s, sfx.s) {
			numStr := strings.TrimSuffix(s, sfx.s)
			num, err := strconv.ParseInt(numStr, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid number %q: %w", numStr, err)
			}
			return num * sfx.m, nil
		}
	}

	// Tenta interpretar como número puro (bytes)
	num, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unknown size format %q", s)
	}
	return num, nil
}
