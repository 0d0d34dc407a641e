package main

import (
	"os"

	"github.com/shipq/semsql/cli"
	"github.com/shipq/semsql/dburl"
	"github.com/shipq/semsql/internal/config"
)

// initCmd implements "semsql init [dir]". The dialect comes from --dialect
// or is inferred from DATABASE_URL; postgres is the fallback.
func initCmd(g globals, args []string, out *cli.Output) int {
	dir := g.dir
	dialectName := ""

	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "--dialect":
			if i+1 >= len(args) {
				return out.Error("--dialect requires a name")
			}
			dialectName = args[i+1]
			i++
		default:
			dir = arg
		}
	}

	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return out.ErrorErr("failed to get current directory", err)
		}
		dir = cwd
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if dialectName == "" {
		dialectName = dburl.DialectPostgres
		if inferred, err := dburl.InferDialectFromDBUrl(databaseURL); err == nil && databaseURL != "" {
			dialectName = inferred
		}
	}

	path, err := config.Write(dir, dialectName, databaseURL)
	if err != nil {
		return out.ErrorErr("failed to initialize", err)
	}
	out.Successf("Created %s", path)
	if databaseURL != "" {
		out.Infof("  database_url = %s", dburl.Redact(databaseURL))
	}
	return 0
}
