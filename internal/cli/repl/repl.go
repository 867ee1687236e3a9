package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrExit may be returned by a command to end the loop.
var ErrExit = errors.New("repl: exit")

// HandlerFunc runs a command with its arguments (command name excluded).
type HandlerFunc func(ctx context.Context, args []string) error

// Command is a REPL command.
type Command struct {
	Name    string
	Aliases []string
	Usage   string
	Summary string
	Run     HandlerFunc
	// Sensitive commands are recorded in history by name only.
	Sensitive bool
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    func() string
	commands  map[string]*Command
	ordered   []*Command
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets input and output.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithPrompt sets a prompt function, evaluated before each line.
func WithPrompt(prompt func() string) Option {
	return func(r *REPL) {
		r.prompt = prompt
	}
}

// WithHistory sets the history.
func WithHistory(h *History) Option {
	return func(r *REPL) {
		r.history = h
	}
}

// New creates a new REPL instance.
func New(opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    func() string { return "portal> " },
		commands:  make(map[string]*Command),
		completer: NewCompleter(),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.registerBuiltins()
	return r
}

// Register adds a command. A later registration with the same name wins.
func (r *REPL) Register(cmd Command) {
	c := cmd
	if _, exists := r.commands[c.Name]; !exists {
		r.ordered = append(r.ordered, &c)
	} else {
		for i, old := range r.ordered {
			if old.Name == c.Name {
				r.ordered[i] = &c
			}
		}
	}
	r.commands[c.Name] = &c
	for _, a := range c.Aliases {
		r.commands[a] = &c
	}
	r.completer.Add(append([]string{c.Name}, c.Aliases...)...)
}

// History returns the command history.
func (r *REPL) History() *History {
	return r.history
}

// Output returns the writer commands should print to.
func (r *REPL) Output() io.Writer {
	return r.output
}

// Run starts the loop. It returns nil on exit, end of input or context
// cancellation.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt())

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.output)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			continue
		}
		r.history.Add(r.historyLine(line))

		if xerr := r.Execute(ctx, line); xerr != nil {
			if errors.Is(xerr, ErrExit) {
				return nil
			}
			fmt.Fprintf(r.output, "Error: %v\n", xerr)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (r *REPL) historyLine(line string) string {
	name, _, _ := strings.Cut(line, " ")
	if cmd, ok := r.commands[name]; ok && cmd.Sensitive {
		return name
	}
	return line
}

// Execute runs a single line.
func (r *REPL) Execute(ctx context.Context, line string) error {
	args, err := SplitArgs(line)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	cmd, ok := r.commands[args[0]]
	if !ok {
		if s := r.completer.Complete(args[0]); len(s) > 0 {
			return fmt.Errorf("unknown command %q (did you mean: %s?)", args[0], strings.Join(s, ", "))
		}
		return fmt.Errorf("unknown command %q, type help for a list", args[0])
	}
	return cmd.Run(ctx, args[1:])
}

func (r *REPL) registerBuiltins() {
	r.Register(Command{
		Name:    "help",
		Aliases: []string{"?"},
		Summary: "list commands",
		Run: func(ctx context.Context, args []string) error {
			r.printHelp()
			return nil
		},
	})
	r.Register(Command{
		Name:    "history",
		Summary: "show command history",
		Run: func(ctx context.Context, args []string) error {
			for i, e := range r.history.Entries() {
				fmt.Fprintf(r.output, "%4d  %s\n", i+1, e)
			}
			return nil
		},
	})
	r.Register(Command{
		Name:    "exit",
		Aliases: []string{"quit"},
		Summary: "leave the shell",
		Run: func(ctx context.Context, args []string) error {
			return ErrExit
		},
	})
}

func (r *REPL) printHelp() {
	cmds := make([]*Command, len(r.ordered))
	copy(cmds, r.ordered)
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })

	for _, c := range cmds {
		usage := c.Name
		if c.Usage != "" {
			usage += " " + c.Usage
		}
		fmt.Fprintf(r.output, "  %-28s %s\n", usage, c.Summary)
	}
}

// SplitArgs splits a line into words, honoring single and double quotes
// and backslash escapes outside single quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, ch := range line {
		switch {
		case escaped:
			cur.WriteRune(ch)
			escaped = false
		case ch == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteRune(ch)
			}
		case ch == '"' || ch == '\'':
			quote = ch
			inWord = true
		case ch == ' ' || ch == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(ch)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
