// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package client

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
)

// Compression identifica o algoritmo de compressão aplicado antes do envio.
// A compressão é sempre opt-in e acontece no lado do client: o server
// armazena exatamente os bytes que recebe.
type Compression byte

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// ParseCompression converte o valor da flag da CLI em uma Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "gzip":
		return CompressionGzip, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return CompressionNone, fmt.Errorf("unknown compression %q (use none, gzip or zstd)", s)
	}
}

// Ext retorna a extensão anexada ao filename armazenado.
func (c Compression) Ext() string {
	switch c {
	case CompressionGzip:
		return ".gz"
	case CompressionZstd:
		return ".zst"
	default:
		return ""
	}
}

// CompressionForName deduz a compressão pela extensão do filename.
func CompressionForName(name string) Compression {
	switch {
	case hasSuffix(name, ".gz"):
		return CompressionGzip
	case hasSuffix(name, ".zst"):
		return CompressionZstd
	default:
		return CompressionNone
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix
}

// compressToTemp comprime src em um arquivo temporário e o retorna
// rebobinado, junto com o tamanho comprimido. O protocolo exige o tamanho
// do payload antes do content, então não dá para comprimir em streaming
// direto na conexão.
func compressToTemp(src io.Reader, comp Compression) (*os.File, int64, error) {
	tmp, err := os.CreateTemp("", ".nvault-upload-*.tmp")
	if err != nil {
		return nil, 0, fmt.Errorf("creating staging file: %w", err)
	}
	cleanup := func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}

	cw, err := newCompressor(tmp, comp)
	if err != nil {
		cleanup()
		return nil, 0, err
	}
	if _, err := io.Copy(cw, src); err != nil {
		cw.Close()
		cleanup()
		return nil, 0, fmt.Errorf("compressing payload: %w", err)
	}
	if err := cw.Close(); err != nil {
		cleanup()
		return nil, 0, fmt.Errorf("flushing compressor: %w", err)
	}

	size, err := tmp.Seek(0, io.SeekCurrent)
	if err != nil {
		cleanup()
		return nil, 0, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, 0, err
	}
	return tmp, size, nil
}

func newCompressor(w io.Writer, comp Compression) (io.WriteCloser, error) {
	switch comp {
	case CompressionGzip:
		gz, err := pgzip.NewWriterLevel(w, pgzip.BestSpeed)
		if err != nil {
			return nil, fmt.Errorf("creating gzip writer: %w", err)
		}
		gz.SetConcurrency(1<<20, runtime.GOMAXPROCS(0))
		return gz, nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("compression %d has no compressor", comp)
	}
}

func newDecompressor(r io.Reader, comp Compression) (io.ReadCloser, error) {
	switch comp {
	case CompressionGzip:
		gz, err := pgzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gz, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("compression %d has no decompressor", comp)
	}
}
