package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/s2http/internal/cli/config"
	"github.com/leapstack-labs/s2http/internal/cli/output"
	"github.com/leapstack-labs/s2http/pkg/adapter"
	"github.com/leapstack-labs/s2http/pkg/dbapi"
	"github.com/spf13/cobra"
)

const (
	replPrompt = "s2http> "
	contPrompt = "   ...> "
)

// lineReader is the part of readline.Instance the REPL loop uses.
type lineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// repl holds the state of an interactive session.
type repl struct {
	conn    *dbapi.Connection
	cur     *dbapi.Cursor
	meta    adapter.Adapter
	r       *output.Renderer
	out     io.Writer
	target  string
	history string
}

func runQueryREPL(cmd *cobra.Command, cmdCtx *CommandContext) error {
	ctx := cmd.Context()

	conn, err := cmdCtx.Connect()
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	// Metadata commands go through the adapter; a failure only disables them.
	meta, err := cmdCtx.OpenAdapter(ctx)
	if err != nil {
		cmdCtx.Logger.Warn("metadata commands unavailable", "error", err)
		meta = nil
	} else {
		defer func() { _ = meta.Close() }()
	}

	s := &repl{
		conn:    conn,
		cur:     conn.Cursor(),
		meta:    meta,
		r:       cmdCtx.Renderer,
		out:     cmd.OutOrStdout(),
		target:  conn.URL(),
		history: historyFile(cmdCtx.Cfg),
	}
	defer func() { _ = s.cur.Close() }()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     s.history,
		AutoComplete:    s.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s.banner()
	return s.loop(ctx, rl)
}

// historyFile returns the configured history path, falling back to the home
// directory and then the working directory.
func historyFile(cfg *config.Config) string {
	if cfg.HistoryFile != "" {
		return cfg.HistoryFile
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, config.DefaultHistoryFile)
	}
	return config.DefaultHistoryFile
}

func (s *repl) banner() {
	styles := s.r.Styles()
	s.r.Println(styles.Header.Render("s2http") + " " + styles.Muted.Render("connected to "+s.target))
	s.r.Muted("Type .help for commands, .quit to exit")
	s.r.Println("")
}

// loop reads statements until EOF or .quit. Statements accumulate across
// lines until one ends with a semicolon.
func (s *repl) loop(ctx context.Context, rl lineReader) error {
	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := s.dotCommand(ctx, line); quit {
				return nil
			}
			continue
		}

		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString("\n")
			rl.SetPrompt(contPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		script := buf.String()
		buf.Reset()
		for _, stmt := range SplitStatements(script) {
			if err := executeAndRender(ctx, s.cur, s.r, stmt); err != nil {
				s.r.Error("Error: " + err.Error())
				break
			}
		}
		s.r.Println("")
	}
}

// dotCommand runs a REPL command and reports whether the session should end.
func (s *repl) dotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".tables":
		if s.meta == nil {
			s.r.Error("Error: metadata commands are unavailable")
			return false
		}
		tables, err := s.meta.ListTables(ctx, "")
		if err != nil {
			s.r.Error("Error: " + err.Error())
			return false
		}
		if err := renderTables(s.r, tables); err != nil {
			s.r.Error("Error: " + err.Error())
		}

	case ".schema":
		if len(parts) < 2 {
			s.r.Error("Usage: .schema <table>")
			return false
		}
		if s.meta == nil {
			s.r.Error("Error: metadata commands are unavailable")
			return false
		}
		meta, err := s.meta.GetTableMetadata(ctx, parts[1])
		if err != nil {
			s.r.Error("Error: " + err.Error())
			return false
		}
		if err := renderSchema(s.r, meta); err != nil {
			s.r.Error("Error: " + err.Error())
		}

	case ".format":
		if len(parts) < 2 {
			s.r.Printf("Output format: %s\n", s.r.EffectiveMode())
			return false
		}
		mode, err := output.ParseMode(parts[1])
		if err != nil {
			s.r.Error("Error: " + err.Error())
			return false
		}
		s.r = s.r.WithMode(mode)

	case ".ping":
		if err := s.conn.Ping(ctx); err != nil {
			s.r.Error("Error: " + err.Error())
			return false
		}
		s.r.Success("pong")

	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		s.r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .tables           List tables of the current database
  .schema <table>   Show columns of a table
  .format [mode]    Show or set the output format (table, json, csv, markdown)
  .ping             Check the server health endpoint
  .clear            Clear the screen
  .quit / .exit     Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// completer builds a readline completer from the table names of the current
// database.
func (s *repl) completer(ctx context.Context) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	if s.meta != nil {
		// Completion is best effort.
		if tables, err := s.meta.ListTables(ctx, ""); err == nil {
			for _, t := range tables {
				items = append(items, readline.PcItem(t))
			}
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema"),
		readline.PcItem(".format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("csv"),
			readline.PcItem("markdown"),
		),
		readline.PcItem(".ping"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
