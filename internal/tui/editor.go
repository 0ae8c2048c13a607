package tui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// messageTemplate is appended below the message being edited
const messageTemplate = `
# Enter the message for the blank commit. Lines starting
# with '#' are ignored; an empty message keeps the default.
`

// editorCommand picks the editor the same way git does, minus core.editor
func editorCommand() string {
	for _, env := range []string{"GIT_EDITOR", "VISUAL", "EDITOR"} {
		if editor := os.Getenv(env); editor != "" {
			return editor
		}
	}
	return "vi"
}

// EditMessage opens the user's editor on message and returns the edited text with
// comment lines removed. An edit that leaves nothing keeps message.
func EditMessage(message string) (string, error) {
	tmpFile, err := os.CreateTemp("", "REBASER_EDITMSG-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmpFile.Name()) }()

	if _, err := tmpFile.WriteString(message + "\n" + messageTemplate); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	// #nosec G204 -- the editor is chosen by the user
	cmd := exec.Command("sh", "-c", fmt.Sprintf("%s %q", editorCommand(), tmpFile.Name()))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor exited with error: %w", err)
	}

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}

	edited := StripComments(string(content))
	if edited == "" {
		return message, nil
	}
	return edited, nil
}

// StripComments drops '#' lines and surrounding blank lines from an edited message
func StripComments(content string) string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, strings.TrimRight(line, " \t\r"))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
