package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/divijg19/clawtrack/internal/core"
)

// waitFlagEditors return immediately unless told to wait for the file to close.
var waitFlagEditors = map[string]bool{"code": true, "code-insiders": true, "codium": true, "vscodium": true, "subl": true}

func buildEditorCommand(editor string, path string) (*exec.Cmd, error) {
	argv := strings.Fields(strings.TrimSpace(editor))
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty editor")
	}

	editorBin, err := exec.LookPath(argv[0])
	if err != nil {
		return nil, err
	}

	args := argv[1:]
	if waitFlagEditors[filepath.Base(editorBin)] && !containsArg(args, "--wait", "-w") {
		args = append(args, "--wait")
	}
	args = append(args, path)
	return exec.Command(editorBin, args...), nil
}

func containsArg(args []string, names ...string) bool {
	for _, a := range args {
		for _, n := range names {
			if a == n {
				return true
			}
		}
	}
	return false
}

// availableEditors lists the candidate editors found on PATH.
func availableEditors() []string {
	candidates := []string{os.Getenv("VISUAL"), os.Getenv("EDITOR"), "code", "codium", "subl", "nvim", "vim", "vi", "nano", "emacs", "micro", "hx"}
	seen := make(map[string]struct{})
	editors := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		argv := strings.Fields(candidate)
		if _, err := exec.LookPath(argv[0]); err != nil {
			continue
		}
		seen[candidate] = struct{}{}
		editors = append(editors, candidate)
	}
	return editors
}

// editorCommand picks the configured editor, then $VISUAL, $EDITOR and the usual terminal fallbacks.
func editorCommand(configured, path string) (*exec.Cmd, error) {
	if configured = strings.TrimSpace(configured); configured != "" {
		cmd, err := buildEditorCommand(configured, path)
		if err != nil {
			return nil, fmt.Errorf("configured editor not found: %w", err)
		}
		return cmd, nil
	}
	for _, e := range []string{os.Getenv("VISUAL"), os.Getenv("EDITOR"), "nano", "vim", "vi"} {
		if cmd, err := buildEditorCommand(e, path); err == nil {
			return cmd, nil
		}
	}
	return nil, fmt.Errorf("no editor found in $VISUAL/$EDITOR and no fallback (nano/vim/vi) is available")
}

// noteTemplate is the text the editor opens with. Lines starting with // are dropped.
func noteTemplate(lead core.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// New note for %s (%s).\n", lead.DisplayName(), lead.PipelineStage.Label())
	b.WriteString("// Lines starting with // are ignored. Save an empty note to cancel.\n")
	if len(lead.Notes) > 0 {
		b.WriteString("//\n// Latest note:\n")
		for _, line := range strings.Split(lead.Notes[0].Content, "\n") {
			b.WriteString("//   " + line + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// parseNote strips template comment lines and surrounding whitespace.
func parseNote(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, ln := range lines {
		ln = strings.TrimRight(ln, "\r")
		if strings.HasPrefix(strings.TrimSpace(ln), "//") {
			continue
		}
		kept = append(kept, ln)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// editNote opens the user's editor on a note template and returns what they wrote.
func editNote(configured string, lead core.Lead) (string, error) {
	file, err := os.CreateTemp("", "clawtrack-note-*.txt")
	if err != nil {
		return "", err
	}
	path := file.Name()
	defer os.Remove(path)

	if _, err := file.WriteString(noteTemplate(lead)); err != nil {
		_ = file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}

	cmd, err := editorCommand(configured, path)
	if err != nil {
		return "", err
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	content := parseNote(string(data))
	if content == "" {
		return "", fmt.Errorf("edited note is empty")
	}
	return content, nil
}
