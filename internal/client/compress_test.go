// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package client

import (
	"bytes"
	"io"
	"os"
	"testing"
)

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    Compression
		wantErr bool
	}{
		{"", CompressionNone, false},
		{"none", CompressionNone, false},
		{"gzip", CompressionGzip, false},
		{"zstd", CompressionZstd, false},
		{"lz4", CompressionNone, true},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCompression(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCompression(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCompression(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCompressionForName(t *testing.T) {
	tests := []struct {
		name string
		want Compression
	}{
		{"report.pdf.gz", CompressionGzip},
		{"db-dump.sql.zst", CompressionZstd},
		{"plain.txt", CompressionNone},
		{".gz", CompressionNone}, // só extensão, sem nome
	}
	for _, tt := range tests {
		if got := CompressionForName(tt.name); got != tt.want {
			t.Errorf("CompressionForName(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestCompressRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("n-vault compress round trip "), 2048)

	for _, comp := range []Compression{CompressionGzip, CompressionZstd} {
		tmp, size, err := compressToTemp(bytes.NewReader(payload), comp)
		if err != nil {
			t.Fatalf("compressToTemp(%s): %v", comp.Ext(), err)
		}
		defer func() {
			tmp.Close()
			os.Remove(tmp.Name())
		}()

		if size <= 0 {
			t.Fatalf("%s: compressed size = %d", comp.Ext(), size)
		}
		// Payload altamente repetitivo deve encolher
		if size >= int64(len(payload)) {
			t.Errorf("%s: compressed %d bytes into %d, expected shrink", comp.Ext(), len(payload), size)
		}

		dec, err := newDecompressor(tmp, comp)
		if err != nil {
			t.Fatalf("newDecompressor(%s): %v", comp.Ext(), err)
		}
		got, err := io.ReadAll(dec)
		if err != nil {
			t.Fatalf("decompressing %s: %v", comp.Ext(), err)
		}
		dec.Close()

		if !bytes.Equal(got, payload) {
			t.Errorf("%s: round trip mismatch (%d bytes in, %d bytes out)", comp.Ext(), len(payload), len(got))
		}
	}
}

func TestCompressToTempRewinds(t *testing.T) {
	tmp, size, err := compressToTemp(bytes.NewReader([]byte("abc")), CompressionGzip)
	if err != nil {
		t.Fatalf("compressToTemp: %v", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	// O arquivo retornado deve estar posicionado no início
	data, err := io.ReadAll(tmp)
	if err != nil {
		t.Fatalf("reading staging file: %v", err)
	}
	if int64(len(data)) != size {
		t.Errorf("read %d bytes from staging file, size reported %d", len(data), size)
	}
}
