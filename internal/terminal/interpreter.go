// Package terminal implements the dev console's command interpreter: a small
// fixed grammar, history recall, tab completion, sanitized output and a
// persisted transcript.
//
// A submission is two-phase. Begin parses the line and moves the session to
// Executing; Job.Run performs the only blocking step (the README fetch) and may
// run on another goroutine; Finish applies the result on the owning goroutine
// and returns to Idle. Results that arrive after the session is closed are
// discarded.
package terminal

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/devconsole/internal/telemetry"
	"github.com/thebtf/devconsole/pkg/models"
)

// DefaultFetchTimeout bounds the README fetch.
const DefaultFetchTimeout = 10 * time.Second

var (
	// ErrBusy is returned by Begin while a command is in flight.
	ErrBusy = errors.New("terminal: command in flight")
	// ErrClosed is returned once the session has been closed.
	ErrClosed = errors.New("terminal: session closed")
)

// State is the lifecycle state of a session.
type State int

const (
	StateIdle State = iota
	StateExecuting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExecuting:
		return "executing"
	case StateClosed:
		return "closed"
	}
	return "invalid"
}

// Navigator changes the displayed page.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }

// ReadmeFetcher returns the raw README text.
type ReadmeFetcher interface {
	FetchReadme(ctx context.Context) (string, error)
}

// ReadmeFetcherFunc adapts a function to ReadmeFetcher.
type ReadmeFetcherFunc func(ctx context.Context) (string, error)

// FetchReadme calls f(ctx).
func (f ReadmeFetcherFunc) FetchReadme(ctx context.Context) (string, error) { return f(ctx) }

// Recorder is the slice of the session store the interpreter writes through.
type Recorder interface {
	Transcript() []models.TranscriptEntry
	AppendTranscriptEntry(ctx context.Context, command string, output []string)
	AddAchievement(ctx context.Context, key string, points int) bool
}

// Config wires an Interpreter to its collaborators.
type Config struct {
	Store     Recorder
	Navigator Navigator
	Readme    ReadmeFetcher

	// FetchTimeout bounds the README fetch; DefaultFetchTimeout when zero.
	FetchTimeout time.Duration
	// ReadmeEgg is awarded after a successful README read; nil disables it.
	ReadmeEgg *models.EggDefinition
	// Now is the clock used by date; time.Now when nil.
	Now func() time.Time
}

// Result describes an applied submission.
type Result struct {
	Command   Command
	Output    []string // sanitized
	Navigated string   // page path handed to the Navigator, if any
	Closed    bool
}

// Interpreter is one terminal session.
type Interpreter struct {
	id  string
	cfg Config

	mu       sync.Mutex
	state    State
	seq      uint64
	inflight context.CancelFunc
	cwd      Path

	input           string
	historyIndex    int
	suggestions     []string
	showSuggestions bool

	display []string
}

// New opens a session. The durable transcript is replayed into the display
// buffer after the banner.
func New(cfg Config) *Interpreter {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	in := &Interpreter{
		id:           uuid.NewString(),
		cfg:          cfg,
		historyIndex: -1,
		display:      copyLines(Banner),
	}

	if cfg.Store != nil {
		var replay []string
		for _, entry := range cfg.Store.Transcript() {
			replay = append(replay, "$ "+entry.Command)
			replay = append(replay, entry.Output...)
			replay = append(replay, "")
		}
		in.appendDisplay(replay...)
	}

	log.Debug().Str("session", in.id).Msg("Terminal session opened")
	return in
}

// ID returns the session identifier.
func (in *Interpreter) ID() string {
	return in.id
}

// State returns the lifecycle state.
func (in *Interpreter) State() State {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

// Path returns the current virtual path.
func (in *Interpreter) Path() Path {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.cwd
}

// Display returns a copy of the live display buffer.
func (in *Interpreter) Display() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return copyLines(in.display)
}

// Close dismisses the session. An in-flight fetch is cancelled and its
// result will be dropped. Close is idempotent.
func (in *Interpreter) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closeLocked()
}

func (in *Interpreter) closeLocked() {
	if in.state == StateClosed {
		return
	}
	in.state = StateClosed
	in.showSuggestions = false
	if in.inflight != nil {
		in.inflight()
		in.inflight = nil
	}
	log.Debug().Str("session", in.id).Msg("Terminal session closed")
}

// appendDisplay appends lines and keeps the newest MaxDisplayLines.
func (in *Interpreter) appendDisplay(lines ...string) {
	in.display = append(in.display, lines...)
	if over := len(in.display) - MaxDisplayLines; over > 0 {
		in.display = append([]string(nil), in.display[over:]...)
	}
}

// Job is one submitted line between Begin and Finish.
type Job struct {
	seq  uint64
	line Line
	ctx  context.Context // cancelled when the session closes

	fetcher ReadmeFetcher
	timeout time.Duration

	output   []string
	record   bool   // show output and append a transcript entry
	clear    bool   // reset the display to the banner
	close    bool   // close the session
	navigate string // hand off to the Navigator and close
	chdir    *Path
	fetch    bool
	readOK   bool
}

// Line returns the parsed line.
func (j *Job) Line() Line {
	return j.line
}

// NeedsFetch reports whether Run will block on the README collaborator.
func (j *Job) NeedsFetch() bool {
	return j.fetch
}

// Run performs the job's blocking work, if any. It touches no session state
// and is safe to call from another goroutine. Fetch failures become output.
func (j *Job) Run(ctx context.Context) {
	if !j.fetch {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	stop := context.AfterFunc(j.ctx, cancel)
	defer stop()

	if j.fetcher == nil {
		j.output = []string{msgReadmeError, msgReadmeNotConfig}
		return
	}

	text, err := j.fetcher.FetchReadme(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("README fetch failed")
		j.output = []string{msgReadmeError, err.Error()}
		return
	}
	j.output = strings.Split(text, "\n")
	j.readOK = true
}

// Begin accepts a submitted line. The input buffer is cleared, the history
// cursor reset and the session moves to Executing until Finish.
func (in *Interpreter) Begin(raw string) (*Job, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	switch in.state {
	case StateClosed:
		return nil, ErrClosed
	case StateExecuting:
		return nil, ErrBusy
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	in.state = StateExecuting
	in.seq++
	in.inflight = cancel
	in.input = ""
	in.historyIndex = -1
	in.showSuggestions = false
	in.suggestions = nil

	job := &Job{
		seq:     in.seq,
		line:    Parse(raw),
		ctx:     jobCtx,
		fetcher: in.cfg.Readme,
		timeout: in.cfg.FetchTimeout,
	}
	in.resolveLocked(job)
	return job, nil
}

// resolveLocked evaluates everything that does not need the README.
func (in *Interpreter) resolveLocked(j *Job) {
	line := j.line
	switch line.Cmd {
	case CommandHelp:
		j.output, j.record = copyLines(helpLines), true
	case CommandClear:
		j.clear = true
	case CommandWhoami:
		j.output, j.record = copyLines(whoamiLines), true
	case CommandLs:
		if in.cwd.IsRoot() {
			j.output = copyLines(rootListing)
		} else {
			j.output = copyLines(nestedListing)
		}
		j.record = true
	case CommandPwd:
		j.output, j.record = []string{in.cwd.String()}, true
	case CommandDate:
		j.output, j.record = []string{formatDate(in.cfg.Now())}, true
	case CommandEcho:
		j.output, j.record = []string{line.Text()}, true
	case CommandCd:
		in.resolveCdLocked(j)
	case CommandCat:
		name := strings.ToLower(line.Arg())
		switch {
		case name == readmeFile:
			j.fetch, j.record = true, true
		case name != "":
			j.output, j.record = []string{catNotFound(name)}, true
		default:
			j.output, j.record = []string{msgCatMissingOp}, true
		}
	case CommandReadme:
		j.fetch, j.record = true, true
	case CommandHistory:
		j.record = true
		if in.cfg.Store != nil {
			for i, entry := range in.cfg.Store.Transcript() {
				j.output = append(j.output, strconv.Itoa(i+1)+"  "+entry.Command)
			}
		}
	case CommandExit:
		j.close = true
	case CommandEmpty:
		j.output, j.record = []string{}, true
	case CommandUnknown:
		j.output, j.record = []string{commandNotFound(line.Token)}, true
	}
}

func (in *Interpreter) resolveCdLocked(j *Job) {
	target := j.line.Arg()
	if target == "" || target == ".." || target == "/" {
		root := PathRoot
		j.chdir = &root
		j.output, j.record = []string{msgChangedToRoot}, true
		return
	}

	// "." navigates to the current page, the root included.
	p, ok := resolveTarget(target, in.cwd)
	if !ok {
		j.output, j.record = []string{cdNotFound(target)}, true
		return
	}
	j.navigate = p.String()
}

// Finish applies job if it is the submission in flight and the session is
// still open; otherwise the job is discarded and ok is false.
func (in *Interpreter) Finish(ctx context.Context, j *Job) (res Result, ok bool) {
	in.mu.Lock()
	if in.state != StateExecuting || j == nil || j.seq != in.seq {
		in.mu.Unlock()
		log.Debug().Str("session", in.id).Msg("Discarding stale terminal result")
		return Result{}, false
	}
	in.state = StateIdle
	if in.inflight != nil {
		in.inflight()
		in.inflight = nil
	}

	res.Command = j.line.Cmd
	if j.chdir != nil {
		in.cwd = *j.chdir
	}
	if j.clear {
		in.display = copyLines(Banner)
	}
	if j.record {
		res.Output = Sanitize(j.output)
		in.appendDisplay("$ " + j.line.Raw)
		in.appendDisplay(res.Output...)
	}
	if j.navigate != "" {
		res.Navigated = j.navigate
		in.closeLocked()
	}
	if j.close {
		in.closeLocked()
	}
	res.Closed = in.state == StateClosed
	in.mu.Unlock()

	log.Debug().
		Str("session", in.id).
		Str("command", j.line.Cmd.String()).
		Int("lines", len(res.Output)).
		Msg("Terminal command executed")
	telemetry.CommandExecuted(ctx, j.line.Cmd.String())

	if in.cfg.Store != nil {
		if j.record {
			in.cfg.Store.AppendTranscriptEntry(ctx, j.line.Raw, res.Output)
		}
		if j.readOK && in.cfg.ReadmeEgg != nil {
			in.cfg.Store.AddAchievement(ctx, in.cfg.ReadmeEgg.ID, in.cfg.ReadmeEgg.Points)
		}
	}
	if res.Navigated != "" && in.cfg.Navigator != nil {
		in.cfg.Navigator.Navigate(res.Navigated)
	}
	return res, true
}

// Submit runs a line to completion on the calling goroutine.
func (in *Interpreter) Submit(ctx context.Context, raw string) (Result, error) {
	job, err := in.Begin(raw)
	if err != nil {
		return Result{}, err
	}
	job.Run(ctx)
	res, ok := in.Finish(ctx, job)
	if !ok {
		return Result{}, ErrClosed
	}
	return res, nil
}
