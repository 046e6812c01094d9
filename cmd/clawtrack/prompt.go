package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readers keeps one buffered reader per input so consecutive prompts do not drop piped lines.
var readers = map[io.Reader]*bufio.Reader{}

func lineReader(in io.Reader) *bufio.Reader {
	r, ok := readers[in]
	if !ok {
		r = bufio.NewReader(in)
		readers[in] = r
	}
	return r
}

// readLine prints label and reads one line from the command's input.
func readLine(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := lineReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func confirm(cmd *cobra.Command, question string) (bool, error) {
	answer, err := readLine(cmd, question+" [y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// readPassword reads a password without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(fd) {
		return readLine(cmd, label)
	}
	fmt.Fprint(cmd.OutOrStdout(), label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
