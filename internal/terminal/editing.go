package terminal

import "strings"

// SetInput replaces the pending input buffer. Any edit leaves history
// browsing and recomputes the suggestion list.
func (in *Interpreter) SetInput(value string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state == StateClosed {
		return
	}

	in.input = value
	in.historyIndex = -1
	if strings.TrimSpace(value) == "" {
		in.showSuggestions = false
		return
	}
	in.suggestions = completions(value)
	in.showSuggestions = len(in.suggestions) > 0
}

// Input returns the pending input buffer.
func (in *Interpreter) Input() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.input
}

// HistoryIndex returns the recall cursor, -1 when not browsing.
func (in *Interpreter) HistoryIndex() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.historyIndex
}

// Suggestions returns the visible completion candidates, or nil when the
// list is hidden.
func (in *Interpreter) Suggestions() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.showSuggestions || len(in.suggestions) == 0 {
		return nil
	}
	return copyLines(in.suggestions)
}

// DismissSuggestions hides the suggestion list.
func (in *Interpreter) DismissSuggestions() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.showSuggestions = false
}

// HistoryUp recalls the previous command, starting from the newest.
func (in *Interpreter) HistoryUp() {
	commands := in.historyCommands()

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state == StateClosed || len(commands) == 0 {
		return
	}
	idx := len(commands) - 1
	if in.historyIndex != -1 {
		idx = max(0, min(in.historyIndex, len(commands))-1)
	}
	in.historyIndex = idx
	in.input = commands[idx]
}

// HistoryDown moves toward the newest command. Stepping past it clears the
// buffer and stops browsing.
func (in *Interpreter) HistoryDown() {
	commands := in.historyCommands()

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state == StateClosed || in.historyIndex == -1 {
		return
	}
	idx := in.historyIndex + 1
	if idx >= len(commands) {
		in.historyIndex = -1
		in.input = ""
		return
	}
	in.historyIndex = idx
	in.input = commands[idx]
}

func (in *Interpreter) historyCommands() []string {
	if in.cfg.Store == nil {
		return nil
	}
	entries := in.cfg.Store.Transcript()
	commands := make([]string, len(entries))
	for i, e := range entries {
		commands[i] = e.Command
	}
	return commands
}

// TabComplete completes the buffer. A single candidate is filled in; several
// are shown as suggestions and the buffer is left alone. It reports the
// candidates considered.
func (in *Interpreter) TabComplete() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state == StateClosed {
		return nil
	}

	candidates := completions(in.input)
	switch {
	case len(candidates) == 1:
		in.input = applyCompletion(in.input, candidates[0])
	case len(candidates) > 1:
		in.suggestions = candidates
		in.showSuggestions = true
	}
	return copyLines(candidates)
}

// AcceptSuggestion fills the buffer with a chosen candidate and hides the
// list.
func (in *Interpreter) AcceptSuggestion(candidate string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state == StateClosed {
		return
	}
	in.input = applyCompletion(in.input, candidate)
	in.showSuggestions = false
}

// completions returns the candidates for buffer: command names for a single
// token, virtual paths for the argument of cd.
func completions(buffer string) []string {
	parts := strings.Split(strings.TrimSpace(buffer), " ")
	token := strings.ToLower(parts[0])

	var out []string
	switch {
	case len(parts) == 1:
		for _, c := range Commands {
			if strings.HasPrefix(c.String(), token) {
				out = append(out, c.String())
			}
		}
	case len(parts) == 2 && ParseCommand(token) == CommandCd:
		for _, p := range Paths {
			if strings.HasPrefix(p.String(), parts[1]) {
				out = append(out, p.String())
			}
		}
	}
	return out
}

func applyCompletion(buffer, candidate string) string {
	parts := strings.Split(strings.TrimSpace(buffer), " ")
	if len(parts) == 1 {
		return candidate + " "
	}
	parts[len(parts)-1] = candidate
	return strings.Join(parts, " ")
}
