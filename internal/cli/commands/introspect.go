package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metamodel/internal/cli/ui"
	"github.com/conduit-lang/metamodel/internal/metamodel/introspect"
	"github.com/conduit-lang/metamodel/internal/metamodel/spec"
)

// newIntrospectCommand creates the 'introspect' command
func newIntrospectCommand(opts *globalOptions) *cobra.Command {
	var sorts []string
	var all bool

	cmd := &cobra.Command{
		Use:   "introspect [type] [member]",
		Short: "Show the specifications of the domain types",
		Long: `Show the specifications of the domain types.

Without arguments, lists the domain types with their bean sort and member
counts; --all adds every type they reach, such as value types. Given a
logical type name, shows the type's facets and members.
Given a type and a member id, shows that member's facets and parameters.`,
		Example: `  # List the domain types
  metamodel introspect

  # Include reachable value and collection types
  metamodel introspect --all

  # List entities and view models only
  metamodel introspect --sort entity,view_model

  # Show one type
  metamodel introspect todo.Item

  # Show one member in YAML
  metamodel introspect todo.Item Reschedule --format yaml`,
		Args: cobra.MaximumNArgs(2),
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

			if len(args) == 0 {
				specs := opts.domainSpecs(a)
				if all {
					specs = a.Specs.Specifications()
				}
				if len(sorts) > 0 {
					specs = slices.DeleteFunc(slices.Clone(specs), func(s *spec.Specification) bool {
						return !slices.Contains(sorts, s.BeanSort().String())
					})
				}
				return formatter.Format(introspect.Summarize(specs))
			}

			s, ok := a.Specs.SpecificationByName(args[0])
			if !ok {
				names := make([]string, 0)
				for _, s := range a.Specs.Specifications() {
					names = append(names, s.LogicalTypeName())
				}
				fmt.Fprint(cmd.ErrOrStderr(), ui.TypeNotFound(args[0], ui.FindSimilar(args[0], names), opts.noColor))
				return fmt.Errorf("unknown type %q", args[0])
			}
			if len(args) == 1 {
				return formatter.Format(introspect.Describe(s))
			}

			ids := make([]string, 0)
			for _, m := range s.Members() {
				if m.ID() == args[1] {
					return formatter.Format(introspect.DescribeMember(m))
				}
				ids = append(ids, m.ID())
			}
			fmt.Fprint(cmd.ErrOrStderr(), ui.MemberNotFound(s.LogicalTypeName(), args[1], ui.FindSimilar(args[1], ids), opts.noColor))
			return fmt.Errorf("%s has no member %q", s.LogicalTypeName(), args[1])
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Also list types reached only through members")
	cmd.Flags().StringSliceVar(&sorts, "sort", nil, "Only list types of these bean sorts (entity, view_model, value, mixin, ...)")

	return cmd
}
