package commands

import (
	"github.com/spf13/cobra"

	"github.com/conduit-lang/metamodel/internal/metamodel/introspect"
)

type validationResult struct {
	Valid    bool                            `json:"valid" yaml:"valid"`
	Types    int                             `json:"types" yaml:"types"`
	Failures []introspect.FailureDescription `json:"failures" yaml:"failures"`
}

// newValidateCommand creates the 'validate' command
func newValidateCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the metamodel for validation failures",
		Long: `Load every domain type and report validation failures such as
supporting methods without a member, duplicate member ids or malformed
mixins. Exits non-zero when there are failures.`,
		Example: `  # Validate the metamodel
  metamodel validate

  # Machine-readable report
  metamodel validate --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			formatter, err := GetFormatter(opts.format, cmd.OutOrStdout(), opts.noColor)
			if err != nil {
				return err
			}
			result := validationResult{
				Valid:    !a.Report.HasFailures(),
				Types:    len(opts.domainSpecs(a)),
				Failures: introspect.Failures(a.Report),
			}
			if err := formatter.Format(result); err != nil {
				return err
			}
			if !result.Valid {
				return ErrValidationFailed
			}
			return nil
		},
	}
}
