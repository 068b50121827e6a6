package commands

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/metamodel/internal/app"
	"github.com/conduit-lang/metamodel/internal/config"
	"github.com/conduit-lang/metamodel/internal/logging"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// ErrValidationFailed is returned by validate when the metamodel has
// failures. The failures have been printed already.
var ErrValidationFailed = errors.New("metamodel has validation failures")

// globalOptions are the persistent flags and the domain types every
// command loads.
type globalOptions struct {
	configPath string
	format     string
	noColor    bool
	verbose    bool
	types      []reflect.Type
}

// open loads the configuration and assembles the runtime. Logging is off
// unless --verbose is given or the command always logs.
func (o *globalOptions) open(cmd *cobra.Command, logged bool) (*app.App, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	var logger *zap.Logger
	if logged || o.verbose {
		logger = logging.New(cfg.Logging)
	}
	return app.New(cmd.Context(), cfg, logger, o.types...)
}

// domainSpecs returns the specifications of the domain types the CLI was
// built with, ordered by name. Types only reached through their members
// are left out.
func (o *globalOptions) domainSpecs(a *app.App) []*spec.Specification {
	seen := make(map[*spec.Specification]bool)
	var out []*spec.Specification
	for _, t := range o.types {
		s := a.Specs.LoadSpecification(t)
		if s == nil || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	slices.SortFunc(out, func(x, y *spec.Specification) int {
		return strings.Compare(x.LogicalTypeName(), y.LogicalTypeName())
	})
	return out
}

// NewRootCommand creates the root command over the given domain types
func NewRootCommand(types ...reflect.Type) *cobra.Command {
	opts := &globalOptions{types: types}

	rootCmd := &cobra.Command{
		Use:   "metamodel",
		Short: "Inspect, validate and serve the metamodel of Go domain types",
		Long: color.CyanString(`Metamodel - runtime metadata for Go domain objects

The metamodel introspects domain types into specifications: their
properties, collections and actions, each decorated with facets that
describe naming, visibility, value semantics and persistence.

Use it to:
  • Browse the specifications of your domain types
  • Check the metamodel for validation failures
  • Serve the metamodel and its objects over HTTP`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true
			}
			_, err := GetFormatter(opts.format, cmd.OutOrStdout(), opts.noColor)
			return err
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default ./metamodel.yaml)")
	flags.StringVar(&opts.format, "format", "table", "Output format: table, json or yaml")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log runtime activity to stderr")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newIntrospectCommand(opts))
	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the metamodel version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			w := cmd.OutOrStdout()
			for _, line := range [][2]string{
				{"Metamodel version: ", Version},
				{"Git commit: ", GitCommit},
				{"Build date: ", BuildDate},
				{"Go version: ", goVer},
			} {
				titleColor.Fprint(w, line[0])
				fmt.Fprintln(w, line[1])
			}
		},
	}
}

// Execute runs the root command
func Execute(types ...reflect.Type) error {
	rootCmd := NewRootCommand(types...)
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, ErrValidationFailed) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
