package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/shipq/semsql/cli"
	"github.com/shipq/semsql/compile"
	"github.com/shipq/semsql/internal/config"
	"github.com/shipq/semsql/internal/probe"
	"github.com/shipq/semsql/internal/project"
	"github.com/shipq/semsql/logging"
)

// session is the configuration and logger shared by compile and run.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newSession(g globals, out *cli.Output) (*session, error) {
	dir, err := project.Resolve(g.dir)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogFormat, out.Stderr, g.level)
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger}, nil
}

// compile reads the query at path ("-" for stdin) and compiles it with the
// configured adapter. Files ending in .yaml or .yml are decoded as YAML,
// everything else as JSON.
func (s *session) compile(path string, stdin io.Reader) (compile.Result, error) {
	data, err := readQuery(path, stdin)
	if err != nil {
		return compile.Result{}, err
	}
	parse := compile.ParseQuery
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		parse = compile.ParseQueryYAML
	}
	q, err := parse(data)
	if err != nil {
		return compile.Result{}, err
	}
	a, err := s.cfg.Adapter()
	if err != nil {
		return compile.Result{}, err
	}
	c := compile.NewCompiler(a,
		compile.WithLogger(s.logger),
		compile.WithDefaultTimezone(s.cfg.Timezone),
	)
	return c.Compile(q)
}

func readQuery(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query: %w", err)
	}
	return data, nil
}

func compileCmd(g globals, args []string, out *cli.Output) int {
	if len(args) != 1 {
		return out.Error("usage: semsql compile <query.json>")
	}

	s, err := newSession(g, out)
	if err != nil {
		return out.ErrorErr("failed to load config", err)
	}
	result, err := s.compile(args[0], os.Stdin)
	if err != nil {
		return out.ErrorErr("compile failed", err)
	}
	if err := out.JSON(result); err != nil {
		return out.ErrorErr("failed to write result", err)
	}
	return 0
}

func runCmd(g globals, args []string, out *cli.Output) int {
	if len(args) != 1 {
		return out.Error("usage: semsql run <query.json>")
	}

	s, err := newSession(g, out)
	if err != nil {
		return out.ErrorErr("failed to load config", err)
	}
	if s.cfg.DatabaseURL == "" {
		return out.Error("no database_url in semsql.ini and DATABASE_URL is not set")
	}

	result, err := s.compile(args[0], os.Stdin)
	if err != nil {
		return out.ErrorErr("compile failed", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := probe.Open(ctx, s.cfg.DatabaseURL, s.logger)
	if err != nil {
		return out.ErrorErr("failed to connect", err)
	}
	defer conn.Close(context.Background())

	rows, err := conn.Query(ctx, result)
	if err != nil {
		return out.ErrorErr("query failed", err)
	}
	if err := out.JSON(rows); err != nil {
		return out.ErrorErr("failed to write rows", err)
	}
	return 0
}
