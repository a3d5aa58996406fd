package protocol

import (
	"fmt"
	"io"
)

// ReadRequestHeader lê o header fixo de 6 bytes de uma request.
// Bloqueia até obter os 6 bytes completos; short read vira erro.
func ReadRequestHeader(r io.Reader) (*RequestHeader, error) {
	var buf [RequestHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("reading request header: %w", err)
	}
	return &RequestHeader{
		UserID:  wire.Uint32(buf[0:4]),
		Version: buf[4],
		Op:      buf[5],
	}, nil
}

// ReadResponseHeader lê o header fixo de 3 bytes de uma response.
func ReadResponseHeader(r io.Reader) (*ResponseHeader, error) {
	var buf [ResponseHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("reading response header: %w", err)
	}
	return &ResponseHeader{
		Version: buf[0],
		Status:  wire.Uint16(buf[1:3]),
	}, nil
}

// ReadFilename lê um filename length-prefixed (u16 + bytes).
// Um nameLen de zero é válido no wire e retorna string vazia.
func ReadFilename(r io.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", fmt.Errorf("reading filename length: %w", err)
	}
	nameLen := wire.Uint16(lenBuf[:])
	if nameLen == 0 {
		return "", nil
	}

	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return "", fmt.Errorf("reading filename: %w", err)
	}
	return string(name), nil
}

// ReadPayloadSize lê o length prefix u32 de um payload ou content.
func ReadPayloadSize(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("reading payload size: %w", err)
	}
	return wire.Uint32(buf[:]), nil
}

// CopyPayload transfere exatamente size bytes de r para dst em chunks de
// ChunkSize, limitando o pico de memória independente do tamanho do payload.
// Retorna os bytes efetivamente escritos em dst. Um erro de leitura indica
// que o stream está dessincronizado e a conexão deve ser descartada.
func CopyPayload(dst io.Writer, r io.Reader, size uint32) (int64, error) {
	var written int64
	buf := make([]byte, ChunkSize)
	remaining := int64(size)

	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(r, buf[:n]); err != nil {
			return written, fmt.Errorf("reading payload chunk: %w", err)
		}
		if _, err := dst.Write(buf[:n]); err != nil {
			return written, fmt.Errorf("writing payload chunk: %w", err)
		}
		written += n
		remaining -= n
	}

	return written, nil
}

// DrainPayload consome e descarta exatamente size bytes de r.
// Usado quando o destino não pode ser gravado mas o framing da conexão
// precisa permanecer consistente para a próxima request.
func DrainPayload(r io.Reader, size uint32) error {
	_, err := CopyPayload(io.Discard, r, size)
	return err
}
