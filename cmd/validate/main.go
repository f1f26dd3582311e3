// Command validate checks Sokoban level files for playability. It reports:
//   - unknown characters (read as floor)
//   - a missing or duplicated player start
//   - at least one target, and no fewer boxes than targets
//   - boxes or targets the player can never reach
//   - a playable area that leaks to the board edge
//   - levels that are already solved
//
// Usage:
//
//	validate [DIR|FILE ...]
//
// Without arguments it validates game/levels/default. The exit status is
// non-zero if any level is invalid.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

const defaultDir = "game/levels/default"

var levelFile = regexp.MustCompile(`^level(\d+)\.txt$`)

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File string
	*engine.ValidationResult
}

// validateFile loads and validates a single level file.
func validateFile(path string) ValidationResult {
	result := ValidationResult{File: filepath.Base(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		result.ValidationResult = &engine.ValidationResult{
			Errors: []string{fmt.Sprintf("failed to read file: %v", err)},
		}
		return result
	}

	result.ValidationResult = engine.ValidateLevel(string(data))
	return result
}

// levelFiles expands the arguments into level files. Directories contribute their
// levelN.txt files in level order.
func levelFiles(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{defaultDir}
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var numbered []int
		for _, entry := range entries {
			if m := levelFile.FindStringSubmatch(entry.Name()); m != nil && !entry.IsDir() {
				n, _ := strconv.Atoi(m[1])
				numbered = append(numbered, n)
			}
		}
		sort.Ints(numbered)
		for _, n := range numbered {
			files = append(files, filepath.Join(arg, fmt.Sprintf("level%d.txt", n)))
		}
	}
	return files, nil
}

// report prints one block per file and returns whether every level is valid.
func report(w io.Writer, files []string) bool {
	allValid := true
	for _, file := range files {
		result := validateFile(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Fprintf(w, "✅ VALID (%dx%d, %d boxes, %d targets)\n", result.Width, result.Height, result.Boxes, result.Targets)
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
		}
		for _, err := range result.Errors {
			fmt.Fprintln(w, "  ❌ "+err)
		}
		for _, warn := range result.Warnings {
			fmt.Fprintln(w, "  ⚠️  "+warn)
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	switch {
	case len(files) == 0:
		fmt.Fprintln(w, "❌ No level files found")
		return false
	case allValid:
		fmt.Fprintf(w, "✅ All %d levels are valid!\n", len(files))
	default:
		fmt.Fprintln(w, "❌ Some levels have errors")
	}
	return allValid
}

func main() {
	files, err := levelFiles(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding level files: %v\n", err)
		os.Exit(1)
	}
	if !report(os.Stdout, files) {
		os.Exit(1)
	}
}
