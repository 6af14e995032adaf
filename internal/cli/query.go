package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newProveCmd(v *viper.Viper, flags *rootFlags) *cobra.Command {
	var mixed bool

	cmd := &cobra.Command{
		Use:   "prove <goal>",
		Short: "Prove a goal by backward chaining",
		Example: "  sbc prove guarda_chuva --fact chuva --rule 'SE chuva ENTÃO guarda_chuva'\n" +
			"  sbc prove gelo --rulebook clima.yaml --mixed",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, cleanup, err := buildApp(ctx, v, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			goal := args[0]
			prove := a.session.Prove
			if mixed {
				prove = a.session.ProveMixed
			}
			proven, err := prove(ctx, goal)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pode provar %s = Sim? %s\n", goal, pyBool(proven))
			return nil
		},
	}

	cmd.Flags().BoolVar(&mixed, "mixed", false, "Saturate before backward chaining")
	return cmd
}

func newExplainCmd(v *viper.Viper, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <goal>",
		Short: "Explain a goal with its first rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, cleanup, err := buildApp(ctx, v, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			text, err := a.session.Explain(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newSaturateCmd(v *viper.Viper, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "saturate",
		Short: "Forward-chain to a fixpoint and print every fact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			a, cleanup, err := buildApp(ctx, v, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			added, err := a.session.Saturate(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saturação concluída: %d novo(s) fato(s).\n", added)
			for _, f := range a.session.Facts() {
				fmt.Fprintln(out, " ", f)
			}
			return nil
		},
	}
}
