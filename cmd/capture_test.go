package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresmejia3/facebridge/internal/types"
)

func TestReadReference(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "ref.b64")
	vecPath := filepath.Join(dir, "ref.vec")
	if err := os.WriteFile(imgPath, []byte("data:image/png;base64,iVBO\nRw0K\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(vecPath, []byte("  [0.1, -0.2, 0.3]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	image, vector, err := readReference(imgPath, vecPath)
	if err != nil {
		t.Fatalf("readReference failed: %v", err)
	}
	// Image line breaks are stripped at registration, not here.
	if image != "data:image/png;base64,iVBO\nRw0K\n" {
		t.Errorf("image = %q", image)
	}
	if vector != "[0.1, -0.2, 0.3]" {
		t.Errorf("vector = %q", vector)
	}

	image, vector, err = readReference("", "")
	if err != nil || image != "" || vector != "" {
		t.Errorf("expected empty reference, got %q %q %v", image, vector, err)
	}

	if _, _, err := readReference(filepath.Join(dir, "missing"), ""); err == nil {
		t.Error("expected error for missing image file")
	}
}

func TestDescribeOutcome(t *testing.T) {
	tests := []struct {
		name       string
		outcome    *types.DetectionOutcome
		detectOnly bool
		want       string
	}{
		{"no result", nil, false, "without a detection result"},
		{"match", &types.DetectionOutcome{Matched: true, DisplayName: "Alice", Confidence: "0.91"}, false, "✅ Match: Alice (confidence 0.91)"},
		{"not match", &types.DetectionOutcome{Confidence: "0.12"}, false, "❌ No match: unknown (confidence 0.12)"},
		{"detect only", &types.DetectionOutcome{DisplayName: "DetectedFace", Confidence: "0"}, true, "👤 Face detected: DetectedFace"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeOutcome(tt.outcome, tt.detectOnly)
			if !strings.Contains(got, tt.want) {
				t.Errorf("describeOutcome() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestWriteCapturedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.jpg")
	if err := writeCapturedImage(path, "QUJD"); err != nil {
		t.Fatalf("writeCapturedImage failed: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("ABC")) {
		t.Errorf("wrote %q, want ABC", got)
	}

	if err := writeCapturedImage(path, "!!not base64!!"); err == nil {
		t.Error("expected decode error")
	}
}
