package protocol

import (
	"fmt"
	"io"
	"math"
)

// WriteRequestHeader escreve o header fixo de 6 bytes de uma request.
// Formato: [UserID u32] [Version 1B] [Op 1B]
func WriteRequestHeader(w io.Writer, userID uint32, op byte) error {
	var buf [RequestHeaderSize]byte
	wire.PutUint32(buf[0:4], userID)
	buf[4] = ProtocolVersion
	buf[5] = op
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("writing request header: %w", err)
	}
	return nil
}

// WriteFilename escreve um filename length-prefixed (u16 + bytes).
func WriteFilename(w io.Writer, name string) error {
	if len(name) > math.MaxUint16 {
		return ErrNameTooLong
	}
	var lenBuf [2]byte
	wire.PutUint16(lenBuf[:], uint16(len(name)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("writing filename length: %w", err)
	}
	if len(name) > 0 {
		if _, err := w.Write([]byte(name)); err != nil {
			return fmt.Errorf("writing filename: %w", err)
		}
	}
	return nil
}

// WritePayloadSize escreve o length prefix u32 de um payload ou content.
func WritePayloadSize(w io.Writer, size uint32) error {
	var buf [4]byte
	wire.PutUint32(buf[:], size)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("writing payload size: %w", err)
	}
	return nil
}

// WriteStatusResponse escreve a response shape 1: apenas o header.
// Formato: [Version 1B] [Status u16]
func WriteStatusResponse(w io.Writer, status uint16) error {
	var buf [ResponseHeaderSize]byte
	buf[0] = ProtocolVersion
	wire.PutUint16(buf[1:3], status)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("writing status response: %w", err)
	}
	return nil
}

// WriteNamedResponse escreve a response shape 2: header + filename.
// Formato: [Version 1B] [Status u16] [NameLen u16] [Name]
func WriteNamedResponse(w io.Writer, status uint16, name string) error {
	if err := WriteStatusResponse(w, status); err != nil {
		return err
	}
	return WriteFilename(w, name)
}

// WriteContentResponse escreve a response shape 3: header + filename +
// content streamado em chunks. O campo contentLen no wire é exatamente size;
// content deve fornecer pelo menos size bytes.
// Formato: [Version 1B] [Status u16] [NameLen u16] [Name] [ContentLen u32] [Content]
func WriteContentResponse(w io.Writer, status uint16, name string, size uint32, content io.Reader) error {
	if err := WriteNamedResponse(w, status, name); err != nil {
		return err
	}
	if err := WritePayloadSize(w, size); err != nil {
		return err
	}
	if _, err := CopyPayload(w, content, size); err != nil {
		return fmt.Errorf("streaming response content: %w", err)
	}
	return nil
}
