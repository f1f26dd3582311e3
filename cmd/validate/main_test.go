package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	validLevel   = "######\n#  . #\n#@$  #\n#    #\n######"
	invalidLevel = "#####\n#@$ #\n#####"
)

func writeLevel(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestValidateFile_Valid(t *testing.T) {
	path := writeLevel(t, t.TempDir(), "level1.txt", validLevel)

	result := validateFile(path)
	if !result.Valid {
		t.Errorf("Expected valid level, but got errors: %v", result.Errors)
	}
	if result.File != "level1.txt" {
		t.Errorf("Expected file name level1.txt, got %s", result.File)
	}
	if result.Width != 6 || result.Height != 5 {
		t.Errorf("Expected 6x5, got %dx%d", result.Width, result.Height)
	}
}

func TestValidateFile_NoTargets(t *testing.T) {
	path := writeLevel(t, t.TempDir(), "level1.txt", invalidLevel)

	result := validateFile(path)
	if result.Valid {
		t.Error("Expected level without targets to be invalid")
	}
	found := false
	for _, err := range result.Errors {
		if strings.Contains(err, "target") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected a target error, got %v", result.Errors)
	}
}

func TestValidateFile_Missing(t *testing.T) {
	result := validateFile(filepath.Join(t.TempDir(), "level9.txt"))
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "failed to read file") {
		t.Errorf("Expected a read error, got %v", result.Errors)
	}
}

func TestLevelFiles_Order(t *testing.T) {
	dir := t.TempDir()
	writeLevel(t, dir, "level10.txt", validLevel)
	writeLevel(t, dir, "level2.txt", validLevel)
	writeLevel(t, dir, "level1.txt", validLevel)
	writeLevel(t, dir, "notes.txt", "ignored")

	files, err := levelFiles([]string{dir})
	if err != nil {
		t.Fatalf("levelFiles failed: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	if got := strings.Join(names, ","); got != "level1.txt,level2.txt,level10.txt" {
		t.Errorf("Unexpected file order: %s", got)
	}
}

func TestLevelFiles_SingleFileAndMissing(t *testing.T) {
	path := writeLevel(t, t.TempDir(), "custom.txt", validLevel)

	files, err := levelFiles([]string{path})
	if err != nil || len(files) != 1 || files[0] != path {
		t.Errorf("Expected the file itself, got %v (%v)", files, err)
	}

	if _, err := levelFiles([]string{"/non/existent"}); err == nil {
		t.Error("Expected error for missing path")
	}
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	good := writeLevel(t, dir, "level1.txt", validLevel)
	bad := writeLevel(t, dir, "level2.txt", invalidLevel)

	var out bytes.Buffer
	if !report(&out, []string{good}) {
		t.Errorf("Expected all valid, output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "✅ VALID (6x5, 1 boxes, 1 targets)") {
		t.Errorf("Missing summary line:\n%s", out.String())
	}

	out.Reset()
	if report(&out, []string{good, bad}) {
		t.Error("Expected report to fail with an invalid level")
	}
	if !strings.Contains(out.String(), "❌ INVALID") || !strings.Contains(out.String(), "Some levels have errors") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}

	out.Reset()
	if report(&out, nil) {
		t.Error("Expected report without files to fail")
	}
}

func TestEmbeddedLevelsAreValid(t *testing.T) {
	files, err := levelFiles([]string{filepath.Join("..", "..", defaultDir)})
	if err != nil {
		t.Fatalf("levelFiles failed: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("Expected embedded level files")
	}
	for _, file := range files {
		if result := validateFile(file); !result.Valid {
			t.Errorf("%s: %v", result.File, result.Errors)
		}
	}
}
