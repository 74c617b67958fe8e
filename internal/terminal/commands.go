package terminal

import "strings"

// Command is a terminal command. The set is closed: every variant is handled
// by the dispatcher in interpreter.go.
type Command int

const (
	CommandUnknown Command = iota
	CommandEmpty
	CommandHelp
	CommandClear
	CommandWhoami
	CommandLs
	CommandPwd
	CommandDate
	CommandEcho
	CommandCd
	CommandCat
	CommandReadme
	CommandHistory
	CommandExit
)

// Commands lists the user-visible commands in help and completion order.
var Commands = []Command{
	CommandHelp,
	CommandClear,
	CommandWhoami,
	CommandLs,
	CommandPwd,
	CommandDate,
	CommandEcho,
	CommandCd,
	CommandCat,
	CommandReadme,
	CommandHistory,
	CommandExit,
}

var commandNames = map[Command]string{
	CommandHelp:    "help",
	CommandClear:   "clear",
	CommandWhoami:  "whoami",
	CommandLs:      "ls",
	CommandPwd:     "pwd",
	CommandDate:    "date",
	CommandEcho:    "echo",
	CommandCd:      "cd",
	CommandCat:     "cat",
	CommandReadme:  "readme",
	CommandHistory: "history",
	CommandExit:    "exit",
}

var commandsByName = func() map[string]Command {
	m := make(map[string]Command, len(commandNames))
	for c, name := range commandNames {
		m[name] = c
	}
	return m
}()

// String returns the command name as typed.
func (c Command) String() string {
	switch c {
	case CommandEmpty:
		return ""
	case CommandUnknown:
		return "unknown"
	}
	return commandNames[c]
}

// ParseCommand resolves a command token case-insensitively.
func ParseCommand(token string) Command {
	token = strings.ToLower(token)
	if token == "" {
		return CommandEmpty
	}
	if c, ok := commandsByName[token]; ok {
		return c
	}
	return CommandUnknown
}

// Line is a parsed input line.
type Line struct {
	Raw   string   // as submitted
	Token string   // lower-cased command token
	Cmd   Command
	Args  []string // single-space separated, so joining restores the spacing
}

// Parse splits a submitted line into command and arguments. Arguments keep
// their case; the command token does not.
func Parse(raw string) Line {
	parts := strings.Split(strings.TrimSpace(raw), " ")
	token := strings.ToLower(parts[0])
	return Line{
		Raw:   raw,
		Token: token,
		Cmd:   ParseCommand(token),
		Args:  parts[1:],
	}
}

// Arg returns the first argument, or "". A doubled space makes it empty.
func (l Line) Arg() string {
	if len(l.Args) == 0 {
		return ""
	}
	return l.Args[0]
}

// Text returns the arguments joined verbatim.
func (l Line) Text() string {
	return strings.Join(l.Args, " ")
}
