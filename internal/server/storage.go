// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// tmpPattern é o padrão dos arquivos de staging criados durante um BACKUP.
// O prefixo com ponto mantém staging fora do namespace de nomes válidos
// (ValidateFilename rejeita nomes começando com ponto) e fora do LIST.
const tmpPattern = ".nvault-*.tmp"

// Store gerencia o armazenamento em disco, particionado por userId:
// {baseDir}/{userId}/{filename}, flat (sem subdiretórios).
type Store struct {
	baseDir string
}

// NewStore cria um Store e garante que o diretório raiz existe.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir retorna o diretório raiz do storage.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// EnsureRoot recria o diretório raiz caso tenha sido removido em runtime.
func (s *Store) EnsureRoot() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) userDir(userID uint32) string {
	return filepath.Join(s.baseDir, strconv.FormatUint(uint64(userID), 10))
}

// Resolve valida o filename e retorna o caminho absoluto dentro do subtree
// do usuário. Nunca retorna um caminho fora de baseDir.
func (s *Store) Resolve(userID uint32, name string) (string, error) {
	if err := ValidateFilename(name); err != nil {
		return "", err
	}
	path := filepath.Join(s.userDir(userID), name)
	if err := validatePathInBaseDir(s.baseDir, path); err != nil {
		return "", err
	}
	return path, nil
}

// PendingFile é um arquivo de backup em staging: os bytes são gravados em um
// .tmp no diretório do usuário e só viram o nome final no Commit (rename
// atômico). Abort descarta o staging sem deixar artefato parcial.
type PendingFile struct {
	f         *os.File
	tmpPath   string
	finalPath string
}

// Create abre um PendingFile para o arquivo do usuário, criando o diretório
// do usuário se necessário.
func (s *Store) Create(userID uint32, name string) (*PendingFile, error) {
	finalPath, err := s.Resolve(userID, name)
	if err != nil {
		return nil, err
	}

	dir := s.userDir(userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating user directory: %w", err)
	}

	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return nil, fmt.Errorf("creating staging file: %w", err)
	}

	return &PendingFile{f: f, tmpPath: f.Name(), finalPath: finalPath}, nil
}

// Write implementa io.Writer sobre o arquivo de staging.
func (p *PendingFile) Write(b []byte) (int, error) {
	return p.f.Write(b)
}

// Commit fecha o staging e o renomeia atomicamente para o nome final.
func (p *PendingFile) Commit() error {
	if err := p.f.Close(); err != nil {
		os.Remove(p.tmpPath)
		return fmt.Errorf("closing staging file: %w", err)
	}
	if err := os.Rename(p.tmpPath, p.finalPath); err != nil {
		os.Remove(p.tmpPath)
		return fmt.Errorf("committing staging file: %w", err)
	}
	return nil
}

// Abort fecha e remove o staging. Seguro de chamar após falha parcial.
func (p *PendingFile) Abort() {
	p.f.Close()
	os.Remove(p.tmpPath)
}

// Open abre o arquivo do usuário para leitura e retorna seu tamanho exato.
// Erros de arquivo inexistente são distinguíveis via os.IsNotExist.
func (s *Store) Open(userID uint32, name string) (*os.File, int64, error) {
	path, err := s.Resolve(userID, name)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stating %s: %w", name, err)
	}
	if fi.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("%s is a directory", name)
	}

	return f, fi.Size(), nil
}

// Delete remove o arquivo do usuário. Retorna os.ErrNotExist (via wrap do
// os.Remove) quando o arquivo não existe; o handler trata como idempotente.
func (s *Store) Delete(userID uint32, name string) error {
	path, err := s.Resolve(userID, name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// List retorna os nomes dos arquivos regulares diretamente sob o diretório
// do usuário, em ordem lexicográfica. Diretório inexistente resulta em lista
// vazia, não erro. Arquivos de staging (prefixo ponto) são omitidos.
func (s *Store) List(userID uint32) ([]string, error) {
	entries, err := os.ReadDir(s.userDir(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading user directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
