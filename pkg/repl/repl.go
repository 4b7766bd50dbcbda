// Package repl implements the interactive inspector for a delegation store.
// Nodes are addressed by short names (n1, n2, ...) assigned at creation.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"

	"protochain/pkg/store"
)

// Session is a persistent inspector over one DelegationStore. It owns the
// name table mapping REPL handles to nodes and the backing cells used by
// demo accessors.
type Session struct {
	store *store.DelegationStore
	nodes map[string]*store.Node
	names map[*store.Node]string
	order []string
	cells map[string]*cell
	seq   int
	out   io.Writer
}

// cell backs an accessor property installed via the accessor command. The
// getter and setter close over it, so they never re-enter the store.
type cell struct {
	value     any
	lastSetBy string
}

// New creates an empty session over st, writing command output to out.
func New(st *store.DelegationStore, out io.Writer) *Session {
	return &Session{
		store: st,
		nodes: make(map[string]*store.Node),
		names: make(map[*store.Node]string),
		cells: make(map[string]*cell),
		out:   out,
	}
}

// Run reads commands from r until EOF or quit, printing a prompt per line.
// Command errors are reported and the loop continues.
func (s *Session) Run(r io.Reader) error {
	reader := bufio.NewScanner(r)
	fmt.Fprintln(s.out, "protochain (type 'help' for commands, Ctrl+D to exit)")
	for {
		fmt.Fprint(s.out, "> ")
		if !reader.Scan() {
			if err := reader.Err(); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "\nbye")
			return nil
		}
		quit, err := s.Eval(reader.Text())
		if err != nil {
			fmt.Fprintf(s.out, "error: %s\n", err)
		}
		if quit {
			return nil
		}
	}
}

// RunScript executes commands from r without a prompt, aborting on the first
// error. Blank lines and #-comments are skipped.
func (s *Session) RunScript(r io.Reader) error {
	reader := bufio.NewScanner(r)
	lineNo := 0
	for reader.Scan() {
		lineNo++
		line := strings.TrimSpace(reader.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		quit, err := s.Eval(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if quit {
			return nil
		}
	}
	return reader.Err()
}

// Eval runs a single command line. The returned bool requests loop exit.
func (s *Session) Eval(line string) (bool, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false, nil
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		s.printHelp()
		return false, nil
	case "new":
		return false, s.cmdNew(args)
	case "parent":
		return false, s.cmdParent(args)
	case "define":
		return false, s.cmdDefine(args)
	case "accessor":
		return false, s.cmdAccessor(args)
	case "set":
		return false, s.cmdSet(args)
	case "get":
		return false, s.cmdGet(args)
	case "del":
		return false, s.cmdDel(args)
	case "own":
		return false, s.cmdOwn(args)
	case "keys":
		return false, s.cmdKeys(args)
	case "chain":
		return false, s.cmdChain(args)
	case "ancestor":
		return false, s.cmdAncestor(args)
	case "nodes":
		return false, s.cmdNodes(args)
	default:
		return false, fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (s *Session) printHelp() {
	fmt.Fprint(s.out, `commands:
  new [parent]                   create a node, optionally delegating to parent
  parent <node> <newParent|->    relink a node ('-' detaches to root)
  define <node> <key> <value> [flags]   define an own data property
                                 flags: any of w,e,c (default wec)
  accessor <node> <key>          install a demo accessor with a backing cell
  set <node> <key> <value> [receiver]   chain-aware write
  get <node> <key> [receiver]    chain-aware read
  del <node> <key>               delete an own property
  own <node>                     enumerable own keys, insertion order
  keys <node> [pattern]          own keys filtered by an ECMAScript regex
  chain <node> [pattern]         full-chain keys with shadow suppression
  ancestor <a> <b>               is a an ancestor of b?
  nodes                          list nodes and their parents
  quit                           exit
`)
}

func (s *Session) cmdNew(args []string) error {
	var parent *store.Node
	if len(args) > 0 {
		p, err := s.resolve(args[0])
		if err != nil {
			return err
		}
		parent = p
	}
	n, err := s.store.Create(parent)
	if err != nil {
		return err
	}
	s.seq++
	name := fmt.Sprintf("n%d", s.seq)
	s.nodes[name] = n
	s.names[n] = name
	s.order = append(s.order, name)
	fmt.Fprintln(s.out, name)
	return nil
}

func (s *Session) cmdParent(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: parent <node> <newParent|->")
	}
	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	var newParent *store.Node
	if args[1] != "-" {
		if newParent, err = s.resolve(args[1]); err != nil {
			return err
		}
	}
	return s.store.SetParent(node, newParent)
}

func (s *Session) cmdDefine(args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("usage: define <node> <key> <value> [flags]")
	}
	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	flags := "wec"
	if len(args) == 4 {
		flags = args[3]
	}
	desc := store.DataDescriptor{
		Value:        parseValue(args[2]),
		Writable:     strings.ContainsRune(flags, 'w'),
		Enumerable:   strings.ContainsRune(flags, 'e'),
		Configurable: strings.ContainsRune(flags, 'c'),
	}
	return s.store.DefineOwn(node, s.key(args[1]), desc)
}

func (s *Session) cmdAccessor(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: accessor <node> <key>")
	}
	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	key := s.key(args[1])
	c := &cell{}
	s.cells[s.names[node]+"."+key] = c
	desc := store.AccessorDescriptor{
		Get: func(receiver *store.Node) (any, error) {
			return c.value, nil
		},
		Set: func(receiver *store.Node, value any) error {
			c.value = value
			c.lastSetBy = s.names[receiver]
			return nil
		},
		Enumerable:   true,
		Configurable: true,
	}
	return s.store.DefineOwn(node, key, desc)
}

func (s *Session) cmdSet(args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return fmt.Errorf("usage: set <node> <key> <value> [receiver]")
	}
	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	var receiver *store.Node
	if len(args) == 4 {
		if receiver, err = s.resolve(args[3]); err != nil {
			return err
		}
	}
	ok, err := s.store.Set(node, s.key(args[1]), parseValue(args[2]), receiver)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(s.out, "rejected")
	}
	return nil
}

func (s *Session) cmdGet(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("usage: get <node> <key> [receiver]")
	}
	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	var receiver *store.Node
	if len(args) == 3 {
		if receiver, err = s.resolve(args[2]); err != nil {
			return err
		}
	}
	v, err := s.store.Get(node, s.key(args[1]), receiver)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, formatValue(v))
	return nil
}

func (s *Session) cmdDel(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: del <node> <key>")
	}
	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	ok, err := s.store.DeleteOwn(node, s.key(args[1]))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(s.out, "rejected")
	}
	return nil
}

func (s *Session) cmdOwn(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: own <node>")
	}
	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, strings.Join(s.store.EnumerateOwn(node), " "))
	return nil
}

func (s *Session) cmdKeys(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: keys <node> [pattern]")
	}
	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	keys := s.store.EnumerateOwn(node)
	if len(args) == 2 {
		if keys, err = filterKeys(keys, args[1]); err != nil {
			return err
		}
	}
	fmt.Fprintln(s.out, strings.Join(keys, " "))
	return nil
}

func (s *Session) cmdChain(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: chain <node> [pattern]")
	}
	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	keys, err := s.store.EnumerateChain(node)
	if err != nil {
		return err
	}
	if len(args) == 2 {
		if keys, err = filterKeys(keys, args[1]); err != nil {
			return err
		}
	}
	fmt.Fprintln(s.out, strings.Join(keys, " "))
	return nil
}

func (s *Session) cmdAncestor(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: ancestor <a> <b>")
	}
	a, err := s.resolve(args[0])
	if err != nil {
		return err
	}
	b, err := s.resolve(args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, s.store.IsAncestor(a, b))
	return nil
}

func (s *Session) cmdNodes(args []string) error {
	for _, name := range s.order {
		n := s.nodes[name]
		if p := n.Parent(); p != nil {
			fmt.Fprintf(s.out, "%s -> %s\n", name, s.names[p])
		} else {
			fmt.Fprintf(s.out, "%s (root)\n", name)
		}
	}
	return nil
}

func (s *Session) resolve(name string) (*store.Node, error) {
	n, ok := s.nodes[name]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", name)
	}
	return n, nil
}

// key normalizes user-typed property keys to NFC so visually identical keys
// land in the same slot regardless of how the terminal composed them.
func (s *Session) key(raw string) string {
	return norm.NFC.String(raw)
}

// filterKeys keeps the keys matching an ECMAScript-flavored pattern.
func filterKeys(keys []string, pattern string) ([]string, error) {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}
	out := keys[:0:0]
	for _, k := range keys {
		match, err := re.MatchString(k)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, k)
		}
	}
	return out, nil
}

// parseValue interprets a command argument: bools, null, numbers, quoted or
// bare strings.
func parseValue(tok string) any {
	switch tok {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	return strings.Trim(tok, `"'`)
}

func formatValue(v any) string {
	if v == nil {
		return "undefined"
	}
	return fmt.Sprintf("%v", v)
}
