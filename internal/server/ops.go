// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"os"
	"strings"
	"time"

	"github.com/nishisan-dev/n-vault/internal/protocol"
)

// mirrorTimeout limita cada operação assíncrona de espelhamento.
const mirrorTimeout = 5 * time.Minute

// Os handlers retornam erro apenas quando a conexão está irrecuperável
// (framing dessincronizado ou transporte morto): o chamador encerra a
// sessão sem response. Erros de protocolo e de filesystem são respondidos
// com o status code correspondente e retornam nil.

// handleBackup recebe um arquivo: filename + payload streamado em chunks.
// Destino inacessível drena o payload inteiro antes de responder, para
// manter o framing consistente para a próxima request.
func (h *Handler) handleBackup(conn net.Conn, userID uint32, logger *slog.Logger) error {
	name, err := protocol.ReadFilename(conn)
	if err != nil {
		return err
	}
	size, err := protocol.ReadPayloadSize(conn)
	if err != nil {
		return err
	}

	logger = logger.With("file", name, "bytes", size)

	if err := ValidateFilename(name); err != nil {
		logger.Warn("rejecting backup filename", "error", err)
		return h.drainAndFail(conn, size, name)
	}

	if h.guard != nil && !h.guard.Allow() {
		logger.Warn("rejecting backup, storage above watermark")
		return h.drainAndFail(conn, size, name)
	}

	pending, err := h.store.Create(userID, name)
	if err != nil {
		logger.Error("opening backup destination", "error", err)
		return h.drainAndFail(conn, size, name)
	}

	// Copia socket → staging em chunks. Falha de leitura é fatal (sem
	// response, remove o parcial); falha de escrita em disco continua
	// drenando o restante do payload para preservar o framing.
	buf := make([]byte, protocol.ChunkSize)
	remaining := int64(size)
	var diskErr error
	for remaining > 0 {
		n := int64(len(buf))
		if remaining < n {
			n = remaining
		}
		if _, err := io.ReadFull(conn, buf[:n]); err != nil {
			pending.Abort()
			return fmt.Errorf("reading backup payload: %w", err)
		}
		h.TrafficIn.Add(n)
		if diskErr == nil {
			if _, err := pending.Write(buf[:n]); err != nil {
				diskErr = err
			}
		}
		remaining -= n
	}

	if diskErr != nil {
		logger.Error("writing backup payload", "error", diskErr)
		pending.Abort()
		return protocol.WriteNamedResponse(conn, protocol.StatusErrGeneral, name)
	}

	if err := pending.Commit(); err != nil {
		logger.Error("committing backup", "error", err)
		return protocol.WriteNamedResponse(conn, protocol.StatusErrGeneral, name)
	}

	logger.Info("backup stored", "path", pending.finalPath)

	if h.mirror != nil {
		go h.mirrorPut(userID, name, pending.finalPath, logger)
	}

	return protocol.WriteNamedResponse(conn, protocol.StatusGeneralSuccess, name)
}

// drainAndFail consome o payload não gravado e responde ERROR_GENERAL.
// Uma falha de leitura durante o drain é fatal para a conexão.
func (h *Handler) drainAndFail(conn net.Conn, size uint32, name string) error {
	if err := protocol.DrainPayload(conn, size); err != nil {
		return err
	}
	return protocol.WriteNamedResponse(conn, protocol.StatusErrGeneral, name)
}

// handleRestore envia o arquivo do usuário de volta, streamado em chunks,
// com contentLen igual ao tamanho exato do arquivo.
func (h *Handler) handleRestore(conn net.Conn, userID uint32, logger *slog.Logger) error {
	name, err := protocol.ReadFilename(conn)
	if err != nil {
		return err
	}

	logger = logger.With("file", name)

	if err := ValidateFilename(name); err != nil {
		logger.Warn("rejecting restore filename", "error", err)
		return protocol.WriteNamedResponse(conn, protocol.StatusErrGeneral, name)
	}

	f, size, err := h.store.Open(userID, name)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("file not found for restore")
			return protocol.WriteNamedResponse(conn, protocol.StatusErrNoFile, name)
		}
		logger.Error("opening file for restore", "error", err)
		return protocol.WriteNamedResponse(conn, protocol.StatusErrGeneral, name)
	}
	defer f.Close()

	if size > math.MaxUint32 {
		logger.Error("file exceeds protocol content limit", "bytes", size)
		return protocol.WriteNamedResponse(conn, protocol.StatusErrGeneral, name)
	}

	logger.Info("restoring file", "bytes", size)

	// Falha de envio no meio do content é best-effort: a conexão já está
	// presumidamente morta, apenas encerra a sessão.
	if err := protocol.WriteContentResponse(conn, protocol.StatusRestoreSuccess, name, uint32(size), f); err != nil {
		return err
	}
	h.TrafficOut.Add(size)
	return nil
}

// handleDelete remove o arquivo do usuário. Delete é idempotente: arquivo
// inexistente também responde GENERAL_SUCCESS — o estado do filesystem
// converge de qualquer forma.
func (h *Handler) handleDelete(conn net.Conn, userID uint32, logger *slog.Logger) error {
	name, err := protocol.ReadFilename(conn)
	if err != nil {
		return err
	}

	logger = logger.With("file", name)

	if err := ValidateFilename(name); err != nil {
		logger.Warn("rejecting delete filename", "error", err)
		return protocol.WriteNamedResponse(conn, protocol.StatusErrGeneral, name)
	}

	if err := h.store.Delete(userID, name); err != nil {
		if !os.IsNotExist(err) {
			logger.Error("deleting file", "error", err)
			return protocol.WriteNamedResponse(conn, protocol.StatusErrGeneral, name)
		}
		logger.Info("delete of absent file (idempotent)")
	} else {
		logger.Info("file deleted")
		if h.mirror != nil {
			go h.mirrorDelete(userID, name, logger)
		}
	}

	return protocol.WriteNamedResponse(conn, protocol.StatusGeneralSuccess, name)
}

// handleList envia os nomes dos arquivos do usuário como um blob de texto,
// um nome por linha com '\n' terminal. O campo filename desta response não
// tem significado para o client e vai sempre vazio.
func (h *Handler) handleList(conn net.Conn, userID uint32, logger *slog.Logger) error {
	names, err := h.store.List(userID)
	if err != nil {
		logger.Error("listing user files", "error", err)
		return protocol.WriteNamedResponse(conn, protocol.StatusErrGeneral, "")
	}

	if len(names) == 0 {
		logger.Info("no files for user")
		return protocol.WriteStatusResponse(conn, protocol.StatusErrNoFilesForUser)
	}

	blob := strings.Join(names, "\n") + "\n"
	logger.Info("listing files", "count", len(names))

	if err := protocol.WriteContentResponse(conn, protocol.StatusListSuccess, "", uint32(len(blob)), strings.NewReader(blob)); err != nil {
		return err
	}
	h.TrafficOut.Add(int64(len(blob)))
	return nil
}

func (h *Handler) mirrorPut(userID uint32, name, path string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := h.mirror.Put(ctx, userID, name, path); err != nil {
		logger.Warn("mirroring backup failed", "error", err)
		return
	}
	logger.Debug("backup mirrored")
}

func (h *Handler) mirrorDelete(userID uint32, name string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := h.mirror.Delete(ctx, userID, name); err != nil {
		logger.Warn("mirror delete failed", "error", err)
		return
	}
	logger.Debug("mirror object deleted")
}
