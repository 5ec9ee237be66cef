package cli

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
// In tests you can replace it with a stub to avoid touching the terminal.
var readPassword = term.ReadPassword

// promptString reads one line after printing the label. The result is
// whitespace-trimmed and may be empty.
func (a *App) promptString(label string) string {
	fmt.Printf("%s: ", label)
	line, _ := a.reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// promptRequired keeps asking until the answer is non-empty.
func (a *App) promptRequired(label string) string {
	for {
		v := a.promptString(label)
		if v != "" {
			return v
		}
		fmt.Println("value is required")
	}
}

// promptPassword reads a password from the terminal without echo. A newline is
// printed after the read to keep the UI tidy.
func (a *App) promptPassword(label string) string {
	fmt.Printf("%s: ", label)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(pw)
}
