package repl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"protochain/pkg/store"
)

func runScript(t *testing.T, script string) string {
	t.Helper()
	var out bytes.Buffer
	sess := New(store.New(), &out)
	require.NoError(t, sess.RunScript(strings.NewReader(script)))
	return out.String()
}

func TestScriptEndToEnd(t *testing.T) {
	out := runScript(t, `
# root with x=1, child shadows on write
new
define n1 x 1
new n1
get n2 x
set n2 x 2
get n1 x
get n2 x
`)
	assert.Equal(t, "n1\nn2\n1\n1\n2\n", out)
}

func TestScriptCommentsAndBlanksSkipped(t *testing.T) {
	out := runScript(t, "\n# nothing here\nnew\n")
	assert.Equal(t, "n1\n", out)
}

func TestParentRelinkAndCycleError(t *testing.T) {
	var out bytes.Buffer
	sess := New(store.New(), &out)
	require.NoError(t, sess.RunScript(strings.NewReader("new\nnew n1\n")))

	// Cycle is surfaced as a script error with the line number.
	err := sess.RunScript(strings.NewReader("parent n1 n2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
	assert.Contains(t, err.Error(), "cyclic chain")

	// Detach works.
	require.NoError(t, sess.RunScript(strings.NewReader("parent n2 -\nnodes\n")))
	assert.Contains(t, out.String(), "n2 (root)")
}

func TestEnumerationCommands(t *testing.T) {
	out := runScript(t, `
new
new n1
new n2
define n1 a 1
define n2 b 2
define n2 a 3
define n3 c 4
own n3
chain n3
chain n3 ^[ab]$
`)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	n := len(lines)
	require.GreaterOrEqual(t, n, 3)
	assert.Equal(t, "c", lines[n-3])
	assert.Equal(t, "c b a", lines[n-2])
	assert.Equal(t, "b a", lines[n-1])
}

func TestKeysPatternFilter(t *testing.T) {
	out := runScript(t, `
new
define n1 alpha 1
define n1 beta 2
define n1 gamma 3
keys n1 a$
`)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Equal(t, "alpha beta gamma", lines[len(lines)-1])
}

func TestAccessorCommandBindsReceiver(t *testing.T) {
	var out bytes.Buffer
	st := store.New()
	sess := New(st, &out)
	require.NoError(t, sess.RunScript(strings.NewReader(`
new
new n1
accessor n1 temp
set n2 temp 21
get n2 temp
`)))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	assert.Equal(t, "21", lines[len(lines)-1])
	// The setter saw the original receiver, not the owner of the accessor.
	assert.Equal(t, "n2", sess.cells["n1.temp"].lastSetBy)
}

func TestRejectedWriteIsReported(t *testing.T) {
	out := runScript(t, `
new
define n1 x 1 ec
set n1 x 2
get n1 x
`)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	n := len(lines)
	assert.Equal(t, "rejected", lines[n-2])
	assert.Equal(t, "1", lines[n-1])
}

func TestUnknownCommandAndNode(t *testing.T) {
	sess := New(store.New(), &bytes.Buffer{})
	_, err := sess.Eval("frobnicate")
	require.Error(t, err)
	_, err = sess.Eval("get n99 x")
	require.Error(t, err)
}

func TestValueParsing(t *testing.T) {
	assert.Equal(t, int64(42), parseValue("42"))
	assert.Equal(t, 2.5, parseValue("2.5"))
	assert.Equal(t, true, parseValue("true"))
	assert.Nil(t, parseValue("null"))
	assert.Equal(t, "hello", parseValue(`"hello"`))
	assert.Equal(t, "bare", parseValue("bare"))
	assert.Equal(t, "undefined", formatValue(nil))
}

func TestQuitStopsScript(t *testing.T) {
	out := runScript(t, "new\nquit\nnew\n")
	assert.Equal(t, "n1\n", out)
}
