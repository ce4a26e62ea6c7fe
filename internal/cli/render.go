package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/sqlbind/dialect"
	"github.com/syssam/sqlbind/dialect/sql"
	"github.com/syssam/sqlbind/querylanguage"
)

// RenderOptions holds the flags of the render command.
type RenderOptions struct {
	Dialect string
	Watch   bool
}

// RenderResult is a rendered definition file.
type RenderResult struct {
	File        string          `json:"file"`
	CommandText string          `json:"command_text"`
	Parameters  []ParameterView `json:"parameters"`
}

// ParameterView is the printable form of a bound parameter.
type ParameterView struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Size  *int   `json:"size,omitempty"`
	Value any    `json:"value"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}
	cmd := &cobra.Command{
		Use:   "render <definition.yaml>...",
		Short: "Render query definitions to parameterized SQL",
		Long: `Render one or more YAML query definitions into the command text and
parameter list that would be sent to the database.

With --watch, the files are rendered again whenever they change.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), rootOpts, opts, args, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.Dialect, "dialect", "d", "", "target dialect (postgres|mysql|sqlite|sqlserver)")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "render again when a file changes")
	return cmd
}

func runRender(ctx context.Context, rootOpts *RootOptions, opts *RenderOptions, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	name := pick(opts.Dialect, rootOpts.Config.Dialect)
	if name != "" && !dialect.Supported(name) {
		return NewExitError(ExitCommandError, fmt.Sprintf("unsupported dialect %q", name))
	}

	results, err := renderFiles(ctx, name, files)
	if err != nil {
		return formatter.Fail(WrapExitError(ExitCommandError, "render", err), "")
	}
	if err := printResults(formatter, results); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	w, err := newFileWatcher(files)
	if err != nil {
		return WrapExitError(ExitCommandError, "watch", err)
	}
	defer w.Close()
	formatter.VerboseLog("watching %d file(s)", len(files))
	return w.Run(ctx, func(path string) {
		r, err := renderFile(name, path)
		if err != nil {
			_ = formatter.Error(err.Error(), "")
			return
		}
		_ = printResults(formatter, []RenderResult{r})
	})
}

// renderFiles renders the files concurrently. Results keep the order of files.
func renderFiles(ctx context.Context, name string, files []string) ([]RenderResult, error) {
	results := make([]RenderResult, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := renderFile(name, f)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func renderFile(name, path string) (RenderResult, error) {
	def, err := querylanguage.ParseFile(path)
	if err != nil {
		return RenderResult{}, err
	}
	sel, err := def.Build(name)
	if err != nil {
		return RenderResult{}, fmt.Errorf("%s: %w", path, err)
	}
	stmt, err := sel.Render()
	if err != nil {
		return RenderResult{}, fmt.Errorf("%s: %w", path, err)
	}
	return RenderResult{File: path, CommandText: stmt.CommandText, Parameters: parameterViews(stmt.Parameters)}, nil
}

func parameterViews(params []sql.Parameter) []ParameterView {
	views := make([]ParameterView, len(params))
	for i, p := range params {
		views[i] = ParameterView{Name: p.Name, Type: p.Type.String(), Value: p.Value}
		if p.Size >= 0 {
			views[i].Size = &p.Size
		}
	}
	return views
}

func printResults(f *OutputFormatter, results []RenderResult) error {
	if f.JSON() {
		return f.Success(results)
	}
	for _, r := range results {
		fmt.Fprintf(f.Writer, "-- %s\n%s\n", r.File, r.CommandText)
		if len(r.Parameters) == 0 {
			continue
		}
		rows := make([][]string, len(r.Parameters))
		for i, p := range r.Parameters {
			size := ""
			if p.Size != nil {
				size = strconv.Itoa(*p.Size)
			}
			rows[i] = []string{p.Name, p.Type, size, fmt.Sprint(p.Value)}
		}
		f.Table([]string{"Name", "Type", "Size", "Value"}, rows)
	}
	return nil
}

// fileWatcher reports changes to a fixed set of files. It watches their
// directories, so a file replaced on save is still reported.
type fileWatcher struct {
	w     *fsnotify.Watcher
	files map[string]bool
}

func newFileWatcher(files []string) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &fileWatcher{w: w, files: make(map[string]bool, len(files))}
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			w.Close()
			return nil, err
		}
		fw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return fw, nil
}

// Run calls onChange with the absolute path of each written or created
// file until ctx is done.
func (fw *fileWatcher) Run(ctx context.Context, onChange func(path string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.w.Events:
			if !ok {
				return nil
			}
			if fw.files[ev.Name] && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				onChange(ev.Name)
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "watch error", "error", err)
		}
	}
}

func (fw *fileWatcher) Close() error { return fw.w.Close() }
