// Copyright (c) 2026 Nishisan. All rights reserved.
// Use of this source code is governed by the N-Vault License (Non-Commercial Evaluation)
// that can be found in the LICENSE file.

package server

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSweepStaging(t *testing.T) {
	base := t.TempDir()
	userDir := filepath.Join(base, "42")
	os.MkdirAll(userDir, 0755)

	stale := filepath.Join(userDir, ".nvault-111.tmp")
	fresh := filepath.Join(userDir, ".nvault-222.tmp")
	regular := filepath.Join(userDir, "data.bin")

	for _, p := range []string{stale, fresh, regular} {
		os.WriteFile(p, []byte("x"), 0644)
	}
	// Envelhece o staging órfão para além do TTL
	old := time.Now().Add(-48 * time.Hour)
	os.Chtimes(stale, old, old)

	removed, err := SweepStaging(base, 24*time.Hour)
	if err != nil {
		t.Fatalf("SweepStaging: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale staging file not removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh staging file removed")
	}
	if _, err := os.Stat(regular); err != nil {
		t.Error("regular file removed")
	}
}

func TestSweepStagingIgnoresNonStagingNames(t *testing.T) {
	base := t.TempDir()
	userDir := filepath.Join(base, "7")
	os.MkdirAll(userDir, 0755)

	// Velhos, mas não são staging do server
	files := []string{"backup.tmp", ".hidden", "nvault-1.tmp"}
	old := time.Now().Add(-48 * time.Hour)
	for _, name := range files {
		p := filepath.Join(userDir, name)
		os.WriteFile(p, []byte("x"), 0644)
		os.Chtimes(p, old, old)
	}

	removed, err := SweepStaging(base, 24*time.Hour)
	if err != nil {
		t.Fatalf("SweepStaging: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
}

func TestNewJanitorRejectsBadSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := NewJanitor(t.TempDir(), "not a cron expr", time.Hour, logger); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestJanitorStartStop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	j, err := NewJanitor(t.TempDir(), "@hourly", time.Hour, logger)
	if err != nil {
		t.Fatalf("NewJanitor: %v", err)
	}

	j.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	j.Stop(ctx)
}
