package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabComplete_Ambiguous(t *testing.T) {
	in, _, _ := newTestInterpreter(t, nil)
	in.SetInput("c")

	got := in.TabComplete()

	assert.Equal(t, []string{"clear", "cd", "cat"}, got)
	assert.Equal(t, []string{"clear", "cd", "cat"}, in.Suggestions())
	assert.Equal(t, "c", in.Input())
}

func TestTabComplete_SingleCommand(t *testing.T) {
	in, _, _ := newTestInterpreter(t, nil)
	in.SetInput("who")

	got := in.TabComplete()

	assert.Equal(t, []string{"whoami"}, got)
	assert.Equal(t, "whoami ", in.Input())
}

func TestTabComplete_CdPath(t *testing.T) {
	in, _, _ := newTestInterpreter(t, nil)
	in.SetInput("cd /pr")

	in.TabComplete()

	assert.Equal(t, "cd /projects", in.Input())
}

func TestTabComplete_CdPathAmbiguous(t *testing.T) {
	in, _, _ := newTestInterpreter(t, nil)
	in.SetInput("cd /")

	got := in.TabComplete()

	assert.Len(t, got, len(Paths))
	assert.Equal(t, "cd /", in.Input())
}

func TestTabComplete_NoCandidates(t *testing.T) {
	tests := []string{"zzz", "echo hi", "cat /a", "cd /a b"}
	for _, buffer := range tests {
		t.Run(buffer, func(t *testing.T) {
			in, _, _ := newTestInterpreter(t, nil)
			in.SetInput(buffer)
			in.DismissSuggestions()

			assert.Empty(t, in.TabComplete())
			assert.Equal(t, buffer, in.Input())
			assert.Nil(t, in.Suggestions())
		})
	}
}

func TestSetInput_RecomputesSuggestions(t *testing.T) {
	in, _, _ := newTestInterpreter(t, nil)

	in.SetInput("h")
	assert.Equal(t, []string{"help", "history"}, in.Suggestions())

	in.SetInput("he")
	assert.Equal(t, []string{"help"}, in.Suggestions())

	in.SetInput("   ")
	assert.Nil(t, in.Suggestions())
}

func TestAcceptSuggestion(t *testing.T) {
	in, _, _ := newTestInterpreter(t, nil)
	in.SetInput("cd /")

	in.AcceptSuggestion("/secret")

	assert.Equal(t, "cd /secret", in.Input())
	assert.Nil(t, in.Suggestions())
}

func TestHistoryRecall(t *testing.T) {
	in, _, _ := newTestInterpreter(t, nil)
	submit(t, in, "whoami")
	submit(t, in, "pwd")
	submit(t, in, "date")

	in.HistoryUp()
	assert.Equal(t, "date", in.Input())
	assert.Equal(t, 2, in.HistoryIndex())

	in.HistoryUp()
	assert.Equal(t, "pwd", in.Input())

	in.HistoryUp()
	in.HistoryUp()
	assert.Equal(t, "whoami", in.Input())
	assert.Equal(t, 0, in.HistoryIndex())

	in.HistoryDown()
	assert.Equal(t, "pwd", in.Input())

	in.HistoryDown()
	in.HistoryDown()
	assert.Equal(t, "", in.Input())
	assert.Equal(t, -1, in.HistoryIndex())

	in.HistoryDown()
	assert.Equal(t, "", in.Input())
}

func TestHistoryRecall_EditResetsCursor(t *testing.T) {
	in, _, _ := newTestInterpreter(t, nil)
	submit(t, in, "whoami")
	submit(t, in, "pwd")

	in.HistoryUp()
	require.Equal(t, 1, in.HistoryIndex())

	in.SetInput("pw")
	assert.Equal(t, -1, in.HistoryIndex())

	in.HistoryUp()
	assert.Equal(t, "pwd", in.Input())
}

func TestHistoryRecall_EmptyTranscript(t *testing.T) {
	in, _, _ := newTestInterpreter(t, nil)
	in.SetInput("draft")

	in.HistoryUp()

	assert.Equal(t, "draft", in.Input())
	assert.Equal(t, -1, in.HistoryIndex())
}

func TestEditing_IgnoredWhenClosed(t *testing.T) {
	in, _, _ := newTestInterpreter(t, nil)
	in.SetInput("he")
	in.Close()

	in.SetInput("whoami")
	assert.Nil(t, in.TabComplete())
	assert.Equal(t, "he", in.Input())
	assert.Nil(t, in.Suggestions())
}
