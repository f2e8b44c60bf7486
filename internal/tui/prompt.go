package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// PromptContinue asks a yes/no question on stderr and reads the answer from
// stdin. Defaults to no on empty input or read errors.
func PromptContinue(question string) bool {
	return promptContinue(os.Stdin, os.Stderr, question)
}

func promptContinue(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
