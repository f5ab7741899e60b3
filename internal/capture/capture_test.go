package capture_test

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"cdfinder/internal/capture"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestFromFileSniffsMIME(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.bin")
	if err := os.WriteFile(path, pngHeader, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	img, err := capture.FromFile(path)
	if err != nil {
		t.Fatalf("FromFile returned error: %v", err)
	}
	if img.MIME != "image/png" {
		t.Fatalf("expected image/png, got %q", img.MIME)
	}
}

func TestFromFileRejectsNonImages(t *testing.T) {
	dir := t.TempDir()
	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("just some text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := capture.FromFile(text); err == nil {
		t.Fatal("expected error for text file")
	}
	if _, err := capture.FromFile(dir); err == nil {
		t.Fatal("expected error for directory")
	}
	if _, err := capture.FromFile(filepath.Join(dir, "missing.jpg")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})
	tests := []struct {
		name    string
		value   string
		mime    string
		wantErr bool
	}{
		{name: "png", value: "data:image/png;base64," + payload, mime: "image/png"},
		{name: "jpeg", value: "data:image/jpeg;base64," + payload, mime: "image/jpeg"},
		{name: "unknown falls back to jpeg", value: "data:image/webp;base64," + payload, mime: "image/jpeg"},
		{name: "missing prefix", value: payload, wantErr: true},
		{name: "not base64", value: "data:image/png,raw", wantErr: true},
		{name: "bad payload", value: "data:image/png;base64,!!!", wantErr: true},
		{name: "empty payload", value: "data:image/png;base64,", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := capture.ParseDataURL(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", img)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDataURL returned error: %v", err)
			}
			if img.MIME != tt.mime || len(img.Data) != 3 {
				t.Fatalf("unexpected image %q (%d bytes)", img.MIME, len(img.Data))
			}
		})
	}
}

func TestLoadDispatchesOnPrefix(t *testing.T) {
	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	img, err := capture.Load("  " + url)
	if err != nil || img.MIME != "image/png" {
		t.Fatalf("Load(data url) = %q, %v", img.MIME, err)
	}
	path := filepath.Join(t.TempDir(), "p.png")
	if err := os.WriteFile(path, pngHeader, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := capture.Load(path); err != nil {
		t.Fatalf("Load(path) returned error: %v", err)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "camera.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCommandCameraCapturesFrameAndCleansUp(t *testing.T) {
	src := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(src, pngHeader, 0o644); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	script := writeScript(t, `cp "$1" "$2"`)
	camera := capture.NewCommandCamera([]string{script, src}, 5*time.Second, nil)

	stream, err := camera.Open(context.Background())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	img, err := stream.Frame()
	if err != nil {
		t.Fatalf("Frame returned error: %v", err)
	}
	if img.MIME != "image/png" {
		t.Fatalf("unexpected mime %q", img.MIME)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := stream.Frame(); !errors.Is(err, capture.ErrDeviceAccess) {
		t.Fatalf("expected device error after close, got %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}

func TestCommandCameraFailures(t *testing.T) {
	if _, err := capture.NewCommandCamera(nil, time.Second, nil).Open(context.Background()); !errors.Is(err, capture.ErrDeviceAccess) {
		t.Fatalf("expected device error without command, got %v", err)
	}

	failing := writeScript(t, `echo "no camera" >&2; exit 3`)
	if _, err := capture.NewCommandCamera([]string{failing}, time.Second, nil).Open(context.Background()); !errors.Is(err, capture.ErrDeviceAccess) {
		t.Fatalf("expected device error from failing command, got %v", err)
	}

	silent := writeScript(t, `exit 0`)
	stream, err := capture.NewCommandCamera([]string{silent}, time.Second, nil).Open(context.Background())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer stream.Close()
	if _, err := stream.Frame(); !errors.Is(err, capture.ErrDeviceAccess) {
		t.Fatalf("expected device error for missing frame, got %v", err)
	}
}

func TestCommandCameraTimeout(t *testing.T) {
	slow := writeScript(t, `exec sleep 5`)
	start := time.Now()
	_, err := capture.NewCommandCamera([]string{slow}, 100*time.Millisecond, nil).Open(context.Background())
	if !errors.Is(err, capture.ErrDeviceAccess) {
		t.Fatalf("expected device error on timeout, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Fatalf("timeout not enforced, took %s", time.Since(start))
	}
}
