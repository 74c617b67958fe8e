package terminal

import (
	"fmt"
	"time"
)

// DateLayout renders timestamps like a browser's Date.toString.
const DateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// Fixed message texts.
const (
	msgChangedToRoot   = "Changed to root directory"
	msgReadmeError     = "Error loading README.md"
	msgCatMissingOp    = "cat: missing file operand"
	msgReadmeNotConfig = "README source not configured"
	readmeFile         = "readme.md"
)

// Banner is shown when a session opens and after clear.
var Banner = []string{
	"🚀 Welcome to Poza's Dev Console v1.0",
	`Type "help" to see available commands`,
	"",
}

var helpLines = []string{
	"Available commands:",
	"  help     - Show this help message",
	"  clear    - Clear the terminal",
	"  whoami   - Display user information",
	"  ls       - List directory contents",
	"  pwd      - Print working directory",
	"  date     - Show current date and time",
	"  echo     - Display a line of text",
	"  cd       - Change directory",
	"  cat      - Display file contents (readme only)",
	"  readme   - Show the project README",
	"  history  - Show command history",
	"  exit     - Close terminal",
	"",
	"Tip: Try 'readme' or 'cat README.md' for details.",
}

var whoamiLines = []string{
	"poza",
	"Software Developer",
	"Available for hire",
}

var rootListing = []string{
	"about/",
	"projects/",
	"resume/",
	"contact/",
	"secret/",
	"README.md",
}

var nestedListing = []string{
	"../",
	"index.html",
	"style.css",
}

func cdNotFound(target string) string {
	return fmt.Sprintf("cd: %s: No such file or directory", target)
}

func catNotFound(name string) string {
	return fmt.Sprintf("cat: %s: No such file or directory", name)
}

func commandNotFound(token string) string {
	return fmt.Sprintf("Command not found: %s. Type 'help' for available commands.", token)
}

func formatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func copyLines(lines []string) []string {
	return append([]string(nil), lines...)
}
