package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/byte4ever/netkit"
)

func (c *CLI) policyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "policy [NAME]",
		Short: "Show retry policies and their delay schedules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.policies()
			if err != nil {
				return err
			}

			names := reg.Names()
			if len(args) == 1 {
				if _, ok := reg.Lookup(args[0]); !ok {
					return fmt.Errorf("unknown policy %q (available: %v)", args[0], names)
				}

				names = args
			}

			for _, name := range names {
				p, _ := reg.Lookup(name)
				printPolicy(cmd, name, p)
			}

			return nil
		},
	}
}

func printPolicy(cmd *cobra.Command, name string, p netkit.RetryPolicy) {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, styleTitle.Render(name))
	fmt.Fprintf(w, "  retries   %d\n", p.MaxRetries())
	fmt.Fprintf(w, "  strategy  %s, base %s\n", p.Strategy(), p.BaseDelay())

	if p.MaxDelay() > 0 {
		fmt.Fprintf(w, "  max delay %s\n", p.MaxDelay())
	}

	fmt.Fprintf(w, "  statuses  %v\n", p.RetryableStatusCodes())

	if schedule := p.Schedule(); len(schedule) > 0 {
		fmt.Fprintf(w, "  schedule  %v\n", schedule)
	}
}
