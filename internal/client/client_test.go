// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package client

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"

	"github.com/nishisan-dev/n-vault/internal/protocol"
)

// fakeServer roda serve em uma goroutine sobre a ponta server de um
// net.Pipe, e devolve o Client conectado à outra ponta.
func fakeServer(t *testing.T, userID uint32, serve func(conn net.Conn)) *Client {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer serverConn.Close()
		serve(serverConn)
	}()
	t.Cleanup(func() {
		clientConn.Close()
		<-done
	})
	return NewClient(clientConn, userID)
}

func TestClientBackup(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, protocol.ChunkSize+17)

	var gotHdr protocol.RequestHeader
	var gotName string
	var gotPayload bytes.Buffer

	c := fakeServer(t, 42, func(conn net.Conn) {
		hdr, err := protocol.ReadRequestHeader(conn)
		if err != nil {
			t.Errorf("server ReadRequestHeader: %v", err)
			return
		}
		gotHdr = *hdr
		gotName, err = protocol.ReadFilename(conn)
		if err != nil {
			t.Errorf("server ReadFilename: %v", err)
			return
		}
		size, err := protocol.ReadPayloadSize(conn)
		if err != nil {
			t.Errorf("server ReadPayloadSize: %v", err)
			return
		}
		if _, err := protocol.CopyPayload(&gotPayload, conn, size); err != nil {
			t.Errorf("server CopyPayload: %v", err)
			return
		}
		protocol.WriteNamedResponse(conn, protocol.StatusGeneralSuccess, gotName)
	})

	status, err := c.Backup(context.Background(), "data.bin", uint32(len(payload)), bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if status != protocol.StatusGeneralSuccess {
		t.Errorf("status = %d, want %d", status, protocol.StatusGeneralSuccess)
	}
	if gotHdr.UserID != 42 || gotHdr.Op != protocol.OpBackup {
		t.Errorf("request header = %+v", gotHdr)
	}
	if gotName != "data.bin" {
		t.Errorf("filename = %q", gotName)
	}
	if !bytes.Equal(gotPayload.Bytes(), payload) {
		t.Errorf("payload mismatch: %d bytes received", gotPayload.Len())
	}
}

func TestClientRestore(t *testing.T) {
	content := []byte("restored file content")

	c := fakeServer(t, 7, func(conn net.Conn) {
		if _, err := protocol.ReadRequestHeader(conn); err != nil {
			t.Errorf("server ReadRequestHeader: %v", err)
			return
		}
		name, err := protocol.ReadFilename(conn)
		if err != nil {
			t.Errorf("server ReadFilename: %v", err)
			return
		}
		protocol.WriteContentResponse(conn, protocol.StatusRestoreSuccess, name,
			uint32(len(content)), bytes.NewReader(content))
	})

	var dst bytes.Buffer
	status, err := c.Restore("notes.txt", &dst)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if status != protocol.StatusRestoreSuccess {
		t.Errorf("status = %d, want %d", status, protocol.StatusRestoreSuccess)
	}
	if !bytes.Equal(dst.Bytes(), content) {
		t.Errorf("content = %q, want %q", dst.Bytes(), content)
	}
}

func TestClientRestoreNotFound(t *testing.T) {
	c := fakeServer(t, 7, func(conn net.Conn) {
		protocol.ReadRequestHeader(conn)
		name, _ := protocol.ReadFilename(conn)
		protocol.WriteNamedResponse(conn, protocol.StatusErrNoFile, name)
	})

	var dst bytes.Buffer
	status, err := c.Restore("missing.txt", &dst)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if status != protocol.StatusErrNoFile {
		t.Errorf("status = %d, want %d", status, protocol.StatusErrNoFile)
	}
	if dst.Len() != 0 {
		t.Errorf("dst received %d bytes on error status", dst.Len())
	}
}

func TestClientList(t *testing.T) {
	blob := []byte("a.txt\nb.txt\nc.bin\n")

	c := fakeServer(t, 9, func(conn net.Conn) {
		protocol.ReadRequestHeader(conn)
		protocol.WriteContentResponse(conn, protocol.StatusListSuccess, "",
			uint32(len(blob)), bytes.NewReader(blob))
	})

	status, names, err := c.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if status != protocol.StatusListSuccess {
		t.Errorf("status = %d, want %d", status, protocol.StatusListSuccess)
	}
	want := []string{"a.txt", "b.txt", "c.bin"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestClientListEmpty(t *testing.T) {
	c := fakeServer(t, 9, func(conn net.Conn) {
		protocol.ReadRequestHeader(conn)
		// 1002 é status-only: nenhum byte além do response header
		protocol.WriteStatusResponse(conn, protocol.StatusErrNoFilesForUser)
	})

	status, names, err := c.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if status != protocol.StatusErrNoFilesForUser {
		t.Errorf("status = %d, want %d", status, protocol.StatusErrNoFilesForUser)
	}
	if names != nil {
		t.Errorf("names = %v, want nil", names)
	}
}

func TestClientDelete(t *testing.T) {
	c := fakeServer(t, 3, func(conn net.Conn) {
		hdr, _ := protocol.ReadRequestHeader(conn)
		if hdr.Op != protocol.OpDelete {
			t.Errorf("op = %d, want %d", hdr.Op, protocol.OpDelete)
		}
		name, _ := protocol.ReadFilename(conn)
		protocol.WriteNamedResponse(conn, protocol.StatusGeneralSuccess, name)
	})

	status, err := c.Delete("old.bak")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if status != protocol.StatusGeneralSuccess {
		t.Errorf("status = %d, want %d", status, protocol.StatusGeneralSuccess)
	}
}

func TestClientSequentialRequests(t *testing.T) {
	// Duas operações na mesma conexão: o framing precisa permanecer
	// alinhado entre uma response e a próxima request.
	c := fakeServer(t, 5, func(conn net.Conn) {
		for i := 0; i < 2; i++ {
			if _, err := protocol.ReadRequestHeader(conn); err != nil {
				return
			}
			name, err := protocol.ReadFilename(conn)
			if err != nil {
				t.Errorf("request %d: ReadFilename: %v", i, err)
				return
			}
			protocol.WriteNamedResponse(conn, protocol.StatusGeneralSuccess, name)
		}
	})

	for i := 0; i < 2; i++ {
		status, err := c.Delete("x.txt")
		if err != nil {
			t.Fatalf("Delete %d: %v", i, err)
		}
		if status != protocol.StatusGeneralSuccess {
			t.Errorf("Delete %d: status = %d", i, status)
		}
	}
}

func TestStatusMessage(t *testing.T) {
	if msg := StatusMessage(protocol.StatusErrNoFile); msg != "ERROR: File not found on the server." {
		t.Errorf("unexpected message %q", msg)
	}
	if msg := StatusMessage(65000); msg == "" {
		t.Error("unknown status should still yield a message")
	}
}

var _ io.Writer = (*ThrottledWriter)(nil)
