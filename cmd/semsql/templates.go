package main

import (
	"errors"

	"github.com/shipq/semsql/cli"
	"github.com/shipq/semsql/dialect"
	"github.com/shipq/semsql/internal/config"
	"github.com/shipq/semsql/internal/project"
)

// templatesCmd prints "name = snippet" for every entry of the layered table.
// Overrides from semsql.ini are applied when one is found.
func templatesCmd(g globals, args []string, out *cli.Output) int {
	if len(args) != 1 {
		return out.Error("usage: semsql templates <dialect>")
	}

	a, err := templateAdapter(g.dir, args[0])
	if err != nil {
		return out.ErrorErr("failed to build templates", err)
	}

	t := a.Templates()
	for _, name := range t.Names() {
		out.Infof("%s = %s", name, t[name])
	}
	return 0
}

func templateAdapter(dir, name string) (dialect.Adapter, error) {
	if dir == "" {
		root, found, err := project.FindRoot("")
		if err != nil {
			return nil, err
		}
		if !found {
			return dialect.Lookup(name)
		}
		dir = root
	}

	cfg, err := config.Load(dir)
	if errors.Is(err, config.ErrNotFound) {
		return dialect.Lookup(name)
	}
	if err != nil {
		return nil, err
	}
	return cfg.AdapterFor(name)
}
