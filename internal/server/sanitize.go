// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package server

import (
	"fmt"
	"path/filepath"
	"strings"
)

// maxFilenameLength é o comprimento máximo permitido para nomes de arquivo.
const maxFilenameLength = 255

// ValidateFilename valida que um nome vindo do wire é seguro para uso como
// componente de caminho dentro do diretório do usuário. O protocolo não
// restringe o conteúdo do campo filename, então a validação acontece aqui.
// Previne path traversal.
func ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if len(name) > maxFilenameLength {
		return fmt.Errorf("filename exceeds max length %d", maxFilenameLength)
	}

	// Rejeita separadores de path
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("filename contains path separator")
	}

	// Rejeita NUL byte
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("filename contains null byte")
	}

	// Rejeita path traversal
	if name == "." || name == ".." || strings.HasPrefix(name, "..") {
		return fmt.Errorf("filename contains path traversal")
	}

	// Rejeita nomes que começam com ponto — reservados para staging (.nvault-*.tmp)
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("filename starts with dot")
	}

	return nil
}

// validatePathInBaseDir verifica que o caminho resolvido permanece dentro de baseDir.
// Defesa em profundidade contra path traversal.
func validatePathInBaseDir(baseDir, resolvedPath string) error {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("resolving base dir: %w", err)
	}
	absResolved, err := filepath.Abs(resolvedPath)
	if err != nil {
		return fmt.Errorf("resolving target path: %w", err)
	}

	rel, err := filepath.Rel(absBase, absResolved)
	if err != nil {
		return fmt.Errorf("path escapes base directory: %w", err)
	}

	// Se rel começa com "..", o path resolvido está fora de baseDir
	if strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path %q escapes base directory %q", resolvedPath, baseDir)
	}

	return nil
}
