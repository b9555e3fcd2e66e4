// Copyright (c) 2025 A Bit of Help, Inc.

package archive

import (
	"bytes"
	"strings"
	"testing"
)

func TestPreamble_RoundTrip(t *testing.T) {
	for codecName := range codecIDs {
		for containerName := range containerIDs {
			var buf bytes.Buffer
			if err := writePreamble(&buf, codecName, containerName); err != nil {
				t.Fatalf("Expected no error writing preamble, got %v", err)
			}
			if buf.Len() != preambleLen {
				t.Errorf("Expected %d preamble bytes, got %d", preambleLen, buf.Len())
			}

			gotCodec, gotContainer, err := readPreamble(&buf)
			if err != nil {
				t.Fatalf("Expected no error reading preamble, got %v", err)
			}
			if gotCodec != codecName {
				t.Errorf("Expected codec %q, got %q", codecName, gotCodec)
			}
			if gotContainer != containerName {
				t.Errorf("Expected container %q, got %q", containerName, gotContainer)
			}
		}
	}
}

func TestWritePreamble_UnknownNames(t *testing.T) {
	var buf bytes.Buffer

	if err := writePreamble(&buf, "snappy", "tar"); err == nil {
		t.Error("Expected an error for unknown codec, got nil")
	}
	if err := writePreamble(&buf, "zstd", "zip"); err == nil {
		t.Error("Expected an error for unknown container, got nil")
	}
}

func TestReadPreamble_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantMsg string
	}{
		{"empty input", nil, "archive too short"},
		{"truncated", []byte("TPA"), "archive too short"},
		{"bad magic", []byte("NOPE\x01\x01\x01"), "bad magic"},
		{"bad version", []byte("TPAK\x7f\x01\x01"), "unsupported format version"},
		{"unknown codec id", []byte("TPAK\x01\xee\x01"), "unknown codec id"},
		{"unknown container id", []byte("TPAK\x01\x01\xee"), "unknown container id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := readPreamble(bytes.NewReader(tt.data))
			if err == nil {
				t.Fatal("Expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantMsg, err)
			}
		})
	}
}

func TestContainerByName(t *testing.T) {
	// Lookup is case-insensitive
	for _, name := range []string{"tar", "TAR", "cpio", "Cpio"} {
		if _, err := ContainerByName(name); err != nil {
			t.Errorf("Expected container %q to resolve, got %v", name, err)
		}
	}

	// Unknown names report the available containers
	_, err := ContainerByName("zip")
	if err == nil {
		t.Fatal("Expected an error for unknown container, got nil")
	}
	for _, want := range ContainerNames() {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to list %q, got: %v", want, err)
		}
	}
}

func TestDefaultContainer(t *testing.T) {
	if got := DefaultContainer().Name(); got != "tar" {
		t.Errorf("Expected default container to be tar, got %q", got)
	}
}

func TestContainerNames(t *testing.T) {
	want := []string{"cpio", "tar"}
	got := ContainerNames()
	if len(got) != len(want) {
		t.Fatalf("Expected %d containers, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected container %q at position %d, got %q", want[i], i, got[i])
		}
	}
}
