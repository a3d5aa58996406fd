// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

// Package protocol implementa o protocolo binário N-Vault para comunicação
// entre client e server sobre TCP. Todos os inteiros multi-byte são
// little-endian, sem padding entre campos.
package protocol

import (
	"encoding/binary"
	"errors"
)

// ProtocolVersion é a versão atual do protocolo.
const ProtocolVersion byte = 1

// ChunkSize é o tamanho do chunk usado para streaming de payloads.
// Payloads maiores que isso nunca são carregados inteiros em memória.
const ChunkSize = 4096

// Tamanhos fixos dos headers no wire.
const (
	RequestHeaderSize  = 6 // UserID(4) + Version(1) + Op(1)
	ResponseHeaderSize = 3 // Version(1) + Status(2)
)

// Operation codes (Client → Server).
const (
	OpBackup  byte = 100
	OpRestore byte = 200
	OpDelete  byte = 201
	OpList    byte = 202
)

// Status codes (Server → Client).
const (
	StatusRestoreSuccess    uint16 = 210
	StatusListSuccess       uint16 = 211
	StatusGeneralSuccess    uint16 = 212
	StatusErrNoFile         uint16 = 1001
	StatusErrNoFilesForUser uint16 = 1002
	StatusErrGeneral        uint16 = 1003
)

// wire é a ordem de bytes do protocolo inteiro.
var wire = binary.LittleEndian

// Erros do protocolo.
var (
	ErrNameTooLong    = errors.New("protocol: filename exceeds u16 length prefix")
	ErrPayloadTooLong = errors.New("protocol: payload exceeds u32 length prefix")
)

// RequestHeader representa o header fixo de 6 bytes de toda request.
type RequestHeader struct {
	UserID  uint32
	Version byte
	Op      byte
}

// ResponseHeader representa o header fixo de 3 bytes de toda response.
type ResponseHeader struct {
	Version byte
	Status  uint16
}

// OpName retorna o nome legível de um operation code, para logs.
func OpName(op byte) string {
	switch op {
	case OpBackup:
		return "BACKUP"
	case OpRestore:
		return "RESTORE"
	case OpDelete:
		return "DELETE"
	case OpList:
		return "LIST"
	default:
		return "UNKNOWN"
	}
}

// StatusName retorna o nome legível de um status code, para logs.
func StatusName(status uint16) string {
	switch status {
	case StatusRestoreSuccess:
		return "RESTORE_SUCCESS"
	case StatusListSuccess:
		return "LIST_SUCCESS"
	case StatusGeneralSuccess:
		return "GENERAL_SUCCESS"
	case StatusErrNoFile:
		return "ERROR_NO_FILE"
	case StatusErrNoFilesForUser:
		return "ERROR_NO_FILES_FOR_CLIENT"
	case StatusErrGeneral:
		return "ERROR_GENERAL"
	default:
		return "UNKNOWN"
	}
}
