package tui

import (
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

var ErrNoEditor = errors.New("no editor configured")

// EditorOpener expands an editor template such as "code -g {file}:{line}:{col}"
// against files below root.
func EditorOpener(template, root string) Opener {
	return func(t checks.Target) (*exec.Cmd, error) {
		args, err := EditorArgs(template, root, t)
		if err != nil {
			return nil, err
		}
		return exec.Command(args[0], args[1:]...), nil
	}
}

// EditorArgs returns the argv for template. A template without {file}
// gets the file appended.
func EditorArgs(template, root string, t checks.Target) ([]string, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return nil, ErrNoEditor
	}
	col := t.Column
	if col <= 0 {
		col = 1
	}
	file := filepath.Join(root, filepath.FromSlash(t.Path))
	r := strings.NewReplacer("{file}", file, "{line}", strconv.Itoa(t.Line), "{col}", strconv.Itoa(col))

	hasFile := strings.Contains(template, "{file}")
	args := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		args = append(args, r.Replace(f))
	}
	if !hasFile {
		args = append(args, file)
	}
	return args, nil
}
