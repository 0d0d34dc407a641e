package main

import (
	"fmt"
	"strconv"

	"github.com/shipq/semsql/cli"
	"github.com/shipq/semsql/dialect"
	"github.com/shipq/semsql/params"
)

const fragmentUsage = `Usage: semsql fragment <dialect> <capability> <args...>

Capabilities:
  placeholder <index>          Positional bind marker for a 0-based index
  tz <expr> <timezone>         Reinterpret expr in timezone
  timegroup <granularity> <expr>
                               Truncate expr to its granularity bucket
  hll-init <expr>              Build a mergeable sketch from expr
  hll-merge <expr>             Merge a column of sketches
  hll-compute <expr>           Estimate the cardinality of a sketch
  count-approx <expr>          Estimate distinct values of expr from raw rows

Granularities: second, minute, hour, day, week, month, quarter, year
`

// fragment is one capability the fragment command can render.
type fragment struct {
	args   int
	render func(a dialect.Adapter, args []string) (string, error)
}

var fragments = map[string]fragment{
	"placeholder": {1, func(a dialect.Adapter, args []string) (string, error) {
		index, err := strconv.Atoi(args[0])
		if err != nil || index < 0 {
			return "", fmt.Errorf("invalid index %q: must be a non-negative integer", args[0])
		}
		return a.ParamPlaceholder(index), nil
	}},
	"tz": {2, func(a dialect.Adapter, args []string) (string, error) {
		return a.ConvertTimezone(args[0], args[1])
	}},
	"timegroup": {2, func(a dialect.Adapter, args []string) (string, error) {
		g, err := dialect.ParseGranularity(args[0])
		if err != nil {
			return "", err
		}
		return a.TimeGroupedColumn(g, args[1])
	}},
	"hll-init": {1, func(a dialect.Adapter, args []string) (string, error) {
		return a.ApproxDistinctInit(args[0])
	}},
	"hll-merge": {1, func(a dialect.Adapter, args []string) (string, error) {
		return a.ApproxDistinctMerge(args[0])
	}},
	"hll-compute": {1, func(a dialect.Adapter, args []string) (string, error) {
		return a.ApproxDistinctCompute(args[0])
	}},
	"count-approx": {1, func(a dialect.Adapter, args []string) (string, error) {
		return dialect.CountDistinctApprox(a, args[0])
	}},
}

func dialectsCmd(out *cli.Output) int {
	for _, name := range dialect.Names() {
		a, err := dialect.Lookup(name)
		if err != nil {
			return out.ErrorErr("lookup failed", err)
		}
		style := "generic"
		if params.IndexDistinguishing(a) {
			style = "numbered"
		}
		out.Infof("%-10s %-4s %s", name, a.ParamPlaceholder(0), style)
	}
	return 0
}

func fragmentCmd(args []string, out *cli.Output) int {
	if len(args) > 0 && (args[0] == "--help" || args[0] == "-h") {
		fmt.Fprint(out.Stdout, fragmentUsage)
		return 0
	}
	if len(args) < 2 {
		out.Error("'semsql fragment' requires a dialect and a capability")
		fmt.Fprint(out.Stderr, fragmentUsage)
		return 1
	}

	a, err := dialect.Lookup(args[0])
	if err != nil {
		return out.ErrorErr("invalid dialect", err)
	}

	name := args[1]
	f, ok := fragments[name]
	if !ok {
		out.Errorf("unknown capability: %s", name)
		fmt.Fprint(out.Stderr, fragmentUsage)
		return 1
	}
	capArgs := args[2:]
	if len(capArgs) != f.args {
		return out.Errorf("%s takes %d argument(s), got %d", name, f.args, len(capArgs))
	}

	sql, err := f.render(a, capArgs)
	if err != nil {
		return out.ErrorErr(name, err)
	}
	out.Info(sql)
	return 0
}
