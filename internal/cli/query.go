package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	// Database drivers, registered under their dialect names.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/sqlbind/dialect"
	"github.com/syssam/sqlbind/dialect/sql"
	"github.com/syssam/sqlbind/dialect/sql/sqlerr"
	"github.com/syssam/sqlbind/querylanguage"
)

// QueryOptions holds the flags of the query command.
type QueryOptions struct {
	Dialect string
	DSN     string
	Timeout time.Duration
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{}
	cmd := &cobra.Command{
		Use:   "query <definition.yaml>",
		Short: "Run a query definition against a database",
		Long: `Render a YAML query definition and run it against the database named
by --dsn, printing the returned rows.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), rootOpts, opts, args[0], cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "", "database dialect (postgres|mysql|sqlite)")
	cmd.Flags().StringVar(&opts.DSN, "dsn", "", "data source name")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "query timeout")
	return cmd
}

func runQuery(ctx context.Context, rootOpts *RootOptions, opts *QueryOptions, file string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	def, err := querylanguage.ParseFile(file)
	if err != nil {
		return formatter.Fail(WrapExitError(ExitCommandError, "query", err), "")
	}
	name := pick(opts.Dialect, rootOpts.Config.Dialect, def.Dialect)
	dsn := pick(opts.DSN, rootOpts.Config.DSN)
	switch {
	case name == "":
		return formatter.Fail(NewExitError(ExitCommandError, "no dialect: set --dialect, the config file or the definition"), "")
	case !dialect.Supported(name):
		return formatter.Fail(NewExitError(ExitCommandError, fmt.Sprintf("unsupported dialect %q", name)), "")
	case dsn == "":
		return formatter.Fail(NewExitError(ExitCommandError, "no data source: set --dsn or the config file"), "")
	}

	statsOpts := []sql.StatsOption{sql.WithSlowQueryLog()}
	if t := rootOpts.Config.SlowThreshold; t > 0 {
		statsOpts = append(statsOpts, sql.WithSlowThreshold(t))
	}
	drv, stats, err := sql.OpenWithStats(name, dsn, statsOpts...)
	if err != nil {
		return formatter.Fail(WrapExitError(ExitCommandError, "open", err), "")
	}
	defer drv.Close()

	sel, err := def.Build(name)
	if err != nil {
		return formatter.Fail(WrapExitError(ExitCommandError, "query", err), "")
	}
	formatter.VerboseLog("%s", sel)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	rows, err := sql.Query[map[string]any](ctx, drv, sel)
	if err != nil {
		h := hint(err)
		msg := "query"
		if h != "" {
			msg += " (" + h + ")"
		}
		return formatter.Fail(WrapExitError(ExitFailure, msg, err), h)
	}
	formatter.VerboseLog("%s", stats.Stats())

	for _, r := range rows {
		for k, v := range r {
			r[k] = printable(v)
		}
	}
	if formatter.JSON() {
		return formatter.Success(rows)
	}
	columns := columnsOf(def, rows)
	table := make([][]string, len(rows))
	for i, r := range rows {
		table[i] = make([]string, len(columns))
		for j, c := range columns {
			table[i][j] = fmt.Sprint(r[c])
		}
	}
	formatter.Table(columns, table)
	fmt.Fprintf(formatter.Writer, "(%d rows)\n", len(rows))
	return nil
}

// hint explains common failures of a definition against a database.
func hint(err error) string {
	switch sqlerr.Classify(err) {
	case sqlerr.UndefinedColumn:
		return "check the field names of the definition"
	case sqlerr.UndefinedTable:
		return "check the table name of the definition"
	case sqlerr.Truncation:
		return "a value is longer than its declared length"
	case sqlerr.TypeMismatch:
		return "a condition type does not match the column type"
	case sqlerr.Syntax:
		return "the dialect does not match the database"
	}
	return ""
}

// columnsOf returns the selected columns, or the sorted keys of the first
// row when the definition selects all columns.
func columnsOf(def *querylanguage.Definition, rows []map[string]any) []string {
	if len(def.Select) > 0 && !slices.Contains(def.Select, "*") {
		columns := make([]string, len(def.Select))
		for i, c := range def.Select {
			columns[i] = c[strings.LastIndexByte(c, '.')+1:]
		}
		return columns
	}
	var columns []string
	if len(rows) > 0 {
		for c := range rows[0] {
			columns = append(columns, c)
		}
		slices.Sort(columns)
	}
	return columns
}

func printable(v any) any {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return v
	}
}
