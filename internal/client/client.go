// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package client implementa a biblioteca cliente do protocolo N-Vault,
// usada pelo nvault-client e pelos testes de integração.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/nishisan-dev/n-vault/internal/protocol"
)

// Client mantém uma conexão com o server e executa operações do protocolo.
// Uma conexão suporta uma sequência ilimitada de requests.
type Client struct {
	conn        net.Conn
	userID      uint32
	uploadLimit int64 // bytes/s; 0 = sem throttle
}

// Option configura um Client.
type Option func(*Client)

// WithUploadLimit limita a banda de upload do Backup em bytes/segundo.
func WithUploadLimit(bytesPerSec int64) Option {
	return func(c *Client) {
		c.uploadLimit = bytesPerSec
	}
}

// Dial conecta ao server e retorna um Client pronto para uso.
func Dial(addr string, userID uint32, opts ...Option) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return NewClient(conn, userID, opts...), nil
}

// NewClient cria um Client sobre uma conexão existente (útil em testes).
func NewClient(conn net.Conn, userID uint32, opts ...Option) *Client {
	c := &Client{conn: conn, userID: userID}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close encerra a conexão.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Backup envia size bytes de payload para armazenamento sob name.
// Retorna o status code da response do server.
func (c *Client) Backup(ctx context.Context, name string, size uint32, payload io.Reader) (uint16, error) {
	if err := protocol.WriteRequestHeader(c.conn, c.userID, protocol.OpBackup); err != nil {
		return 0, err
	}
	if err := protocol.WriteFilename(c.conn, name); err != nil {
		return 0, err
	}
	if err := protocol.WritePayloadSize(c.conn, size); err != nil {
		return 0, err
	}

	dst := io.Writer(c.conn)
	if c.uploadLimit > 0 {
		dst = NewThrottledWriter(ctx, c.conn, c.uploadLimit)
	}
	if _, err := protocol.CopyPayload(dst, payload, size); err != nil {
		return 0, err
	}

	return c.readSimpleResponse()
}

// BackupFile envia um arquivo local, opcionalmente comprimido antes do
// envio. A compressão é staged em um arquivo temporário porque o protocolo
// exige o tamanho exato do payload antes dos bytes. Retorna o nome sob o
// qual o arquivo foi armazenado (base + extensão de compressão) e o status.
func (c *Client) BackupFile(ctx context.Context, path string, comp Compression) (string, uint16, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path) + comp.Ext()

	src := io.Reader(f)
	var size int64
	if comp == CompressionNone {
		fi, err := f.Stat()
		if err != nil {
			return "", 0, fmt.Errorf("stating %s: %w", path, err)
		}
		size = fi.Size()
	} else {
		tmp, compSize, err := compressToTemp(f, comp)
		if err != nil {
			return "", 0, err
		}
		defer func() {
			tmp.Close()
			os.Remove(tmp.Name())
		}()
		src = tmp
		size = compSize
	}

	if size > math.MaxUint32 {
		return "", 0, fmt.Errorf("%s exceeds protocol payload limit (%d bytes)", path, size)
	}

	status, err := c.Backup(ctx, name, uint32(size), src)
	return name, status, err
}

// Restore baixa o arquivo name, escrevendo o content bruto em dst.
// dst só recebe bytes quando o status é RESTORE_SUCCESS.
func (c *Client) Restore(name string, dst io.Writer) (uint16, error) {
	if err := protocol.WriteRequestHeader(c.conn, c.userID, protocol.OpRestore); err != nil {
		return 0, err
	}
	if err := protocol.WriteFilename(c.conn, name); err != nil {
		return 0, err
	}

	hdr, err := protocol.ReadResponseHeader(c.conn)
	if err != nil {
		return 0, err
	}
	if _, err := c.readResponseTail(hdr.Status, dst); err != nil {
		return 0, err
	}
	return hdr.Status, nil
}

// RestoreFile baixa name para outPath. Com decompress=true, o content é
// descomprimido de acordo com a extensão do name (.gz/.zst) antes de chegar
// ao disco, via staging temporário.
func (c *Client) RestoreFile(name, outPath string, decompress bool) (uint16, error) {
	comp := CompressionForName(name)
	if !decompress || comp == CompressionNone {
		out, err := os.Create(outPath)
		if err != nil {
			return 0, fmt.Errorf("creating %s: %w", outPath, err)
		}
		status, rerr := c.Restore(name, out)
		cerr := out.Close()
		if rerr != nil {
			os.Remove(outPath)
			return 0, rerr
		}
		if status != protocol.StatusRestoreSuccess {
			os.Remove(outPath)
			return status, nil
		}
		if cerr != nil {
			return 0, fmt.Errorf("closing %s: %w", outPath, cerr)
		}
		return status, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".nvault-restore-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating staging file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	status, err := c.Restore(name, tmp)
	if err != nil {
		return 0, err
	}
	if status != protocol.StatusRestoreSuccess {
		return status, nil
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding staging file: %w", err)
	}

	dec, err := newDecompressor(tmp, comp)
	if err != nil {
		return 0, err
	}
	defer dec.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", outPath, err)
	}
	if _, err := io.Copy(out, dec); err != nil {
		out.Close()
		os.Remove(outPath)
		return 0, fmt.Errorf("decompressing restore: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("closing %s: %w", outPath, err)
	}

	return status, nil
}

// Delete remove o arquivo name no server.
func (c *Client) Delete(name string) (uint16, error) {
	if err := protocol.WriteRequestHeader(c.conn, c.userID, protocol.OpDelete); err != nil {
		return 0, err
	}
	if err := protocol.WriteFilename(c.conn, name); err != nil {
		return 0, err
	}
	return c.readSimpleResponse()
}

// List retorna os nomes dos arquivos do usuário no server. Lista vazia com
// status ERROR_NO_FILES_FOR_CLIENT não é um erro de transporte.
func (c *Client) List() (uint16, []string, error) {
	if err := protocol.WriteRequestHeader(c.conn, c.userID, protocol.OpList); err != nil {
		return 0, nil, err
	}

	hdr, err := protocol.ReadResponseHeader(c.conn)
	if err != nil {
		return 0, nil, err
	}

	var content bytes.Buffer
	if _, err := c.readResponseTail(hdr.Status, &content); err != nil {
		return 0, nil, err
	}

	if hdr.Status != protocol.StatusListSuccess {
		return hdr.Status, nil, nil
	}

	var names []string
	for _, line := range strings.Split(content.String(), "\n") {
		if line != "" {
			names = append(names, line)
		}
	}
	return hdr.Status, names, nil
}

// readSimpleResponse lê uma response sem content e retorna o status.
func (c *Client) readSimpleResponse() (uint16, error) {
	hdr, err := protocol.ReadResponseHeader(c.conn)
	if err != nil {
		return 0, err
	}
	if _, err := c.readResponseTail(hdr.Status, io.Discard); err != nil {
		return 0, err
	}
	return hdr.Status, nil
}

// readResponseTail consome o restante da response de acordo com a shape
// determinada pelo status, mantendo o framing da conexão:
//
//	1002            → status-only
//	212, 1001, 1003 → header + filename
//	210, 211        → header + filename + content
//
// Retorna o filename da response (vazio nas shapes sem filename).
func (c *Client) readResponseTail(status uint16, content io.Writer) (string, error) {
	switch status {
	case protocol.StatusErrNoFilesForUser:
		return "", nil
	case protocol.StatusRestoreSuccess, protocol.StatusListSuccess:
		name, err := protocol.ReadFilename(c.conn)
		if err != nil {
			return "", err
		}
		size, err := protocol.ReadPayloadSize(c.conn)
		if err != nil {
			return name, err
		}
		if _, err := protocol.CopyPayload(content, c.conn, size); err != nil {
			return name, err
		}
		return name, nil
	default:
		return protocol.ReadFilename(c.conn)
	}
}

// StatusMessage retorna a mensagem legível de um status code, para a CLI.
func StatusMessage(status uint16) string {
	switch status {
	case protocol.StatusRestoreSuccess:
		return "SUCCESS: File restored."
	case protocol.StatusListSuccess:
		return "SUCCESS: File list received."
	case protocol.StatusGeneralSuccess:
		return "SUCCESS: Backup or delete operation successful."
	case protocol.StatusErrNoFile:
		return "ERROR: File not found on the server."
	case protocol.StatusErrNoFilesForUser:
		return "ERROR: No files found for this client on the server."
	case protocol.StatusErrGeneral:
		return "ERROR: General server error occurred."
	default:
		return fmt.Sprintf("Unknown status code %d", status)
	}
}
