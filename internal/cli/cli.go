package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vk/hookbind/internal/app"
	"github.com/vk/hookbind/internal/config"
	"github.com/vk/hookbind/internal/ctxlog"
)

// Version is the hookbind release, set at build time.
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

type options struct {
	logLevel        string
	logFormat       string
	healthcheckPort int
	relayURL        string
	relayNamespace  string
}

// Run executes the command line in args. Usage problems are returned as an
// ExitError with code 2, every other failure with code 1.
func Run(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := newRootCommand(outW, errW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: 1, Message: err.Error()}
}

func newRootCommand(outW, errW io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "hookbind",
		Short: "Declarative event and asset binding",
		Long: `hookbind binds methods to host events and fields to script and
stylesheet assets from annotations declared in struct tags or in sidecar
metadata files (.hcl, .yaml).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(outW)
	cmd.SetErr(errW)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "", "Logging level: 'debug', 'info', 'warn', 'error'. Overrides HOOKBIND_LOG_LEVEL.")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log output format: 'text' or 'json'. Overrides HOOKBIND_LOG_FORMAT.")

	cmd.AddCommand(
		lintCommand(opts),
		planCommand(opts),
		kindsCommand(),
		serveCommand(opts),
		versionCommand(),
	)
	return cmd
}

// loadConfig reads the environment and applies the flags that were set.
func loadConfig(cmd *cobra.Command, opts *options, paths []string) (*app.Config, error) {
	raw, err := app.LoadConfig()
	if err != nil {
		return nil, usageError("%v", err)
	}
	if opts.logLevel != "" {
		raw.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		raw.LogFormat = opts.logFormat
	}
	if len(paths) > 0 {
		raw.MetadataPaths = paths
	}
	if cmd.Flags().Changed("healthcheck-port") {
		raw.HealthcheckPort = opts.healthcheckPort
	}
	if opts.relayURL != "" {
		raw.RelayURL = opts.relayURL
	}
	if opts.relayNamespace != "" {
		raw.RelayNamespace = opts.relayNamespace
	}
	cfg, err := app.NewConfig(raw)
	if err != nil {
		return nil, usageError("%v", err)
	}
	return cfg, nil
}

func withLogger(cmd *cobra.Command, cfg *app.Config) context.Context {
	return ctxlog.WithLogger(cmd.Context(), cfg.Logger(cmd.ErrOrStderr()))
}

func lintCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [PATH...]",
		Short: "Check sidecar metadata files",
		Long: `Loads the metadata files under each PATH (a file, a directory or a glob
pattern), builds every annotation and runs its static checks. Defaults to
HOOKBIND_METADATA.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts, args)
			if err != nil {
				return err
			}
			if len(cfg.MetadataPaths) == 0 {
				return usageError("no metadata paths given")
			}
			report, err := app.Lint(withLogger(cmd, cfg), cfg.MetadataPaths)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range report.Types {
				fmt.Fprintln(out, t)
			}
			fmt.Fprintf(out, "OK: %d annotations on %d types\n", report.Annotations, len(report.Types))
			return nil
		},
	}
}

func planCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [PATH...]",
		Short: "Print the order annotations are applied in",
		Long: `Prints, per type declared in the metadata files, the annotations in the
order they are applied: type annotations, field annotations in declaration
order, then method annotations in method name order. A method annotation is
applied only when the method is in the attached instance's method set, so
methods with pointer receivers are skipped for instances attached by value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts, args)
			if err != nil {
				return err
			}
			if len(cfg.MetadataPaths) == 0 {
				return usageError("no metadata paths given")
			}
			model, err := app.LoadMetadata(withLogger(cmd, cfg), cfg.MetadataPaths...)
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), model)
			return nil
		},
	}
}

// printPlan writes the application order of every type in model. Field
// order follows the metadata; the method order matches the method set.
func printPlan(w io.Writer, model *config.Model) {
	for _, name := range model.TypeNames() {
		ts := model.Types[name]
		fmt.Fprintln(w, name)
		for _, a := range ts.Annotations {
			fmt.Fprintf(w, "  type: %s\n", a.Kind)
		}
		for _, f := range ts.Fields {
			for _, a := range f.Annotations {
				fmt.Fprintf(w, "  field %s: %s\n", f.Name, a.Kind)
			}
		}
		methods := append([]*config.MemberSpec(nil), ts.Methods...)
		sort.SliceStable(methods, func(i, j int) bool { return methods[i].Name < methods[j].Name })
		for _, m := range methods {
			for _, a := range m.Annotations {
				fmt.Fprintf(w, "  method %s: %s\n", m.Name, a.Kind)
			}
		}
	}
}

func kindsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the annotation kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := app.NewRegistry()
			out := cmd.OutOrStdout()
			for _, kind := range reg.Kinds() {
				ra, _ := reg.Lookup(kind)
				fmt.Fprintf(out, "%-12s %-7s %s\n", kind, ra.Target, ra.Description)
			}
			return nil
		},
	}
}

func serveCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the runtime with health, metrics and the relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts, nil)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.NewApp(ctx, cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&opts.healthcheckPort, "healthcheck-port", 0, "Port for the health and metrics server. 0 is disabled. Overrides HOOKBIND_HEALTHCHECK_PORT.")
	cmd.Flags().StringVar(&opts.relayURL, "relay-url", "", "socket.io URL of the remote host. Overrides HOOKBIND_RELAY_URL.")
	cmd.Flags().StringVar(&opts.relayNamespace, "relay-namespace", "", "socket.io namespace of the remote host. Overrides HOOKBIND_RELAY_NAMESPACE.")
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hookbind version %s\n", Version)
		},
	}
}
