package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootFlags are the persistent flags shared by every command
type rootFlags struct {
	configPath string
	rulebooks  []string
	facts      []string
	rules      []string
}

// NewRootCmd builds a fresh command tree. Each call gets its own viper
// instance, so tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "sbc",
		Short: "Propositional knowledge base with forward and backward chaining",
		Long: "sbc keeps a set of facts and SE ... ENTÃO ... rules, proves goals by\n" +
			"backward chaining, saturates by forward chaining and explains conclusions.\n" +
			"Run without a subcommand to open the interactive menu.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, v, flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Settings file (YAML)")
	pf.StringSliceVar(&flags.rulebooks, "rulebook", nil, "Rulebook file to load (repeatable)")
	pf.StringArrayVar(&flags.facts, "fact", nil, "Seed fact (repeatable)")
	pf.StringArrayVar(&flags.rules, "rule", nil, "Rule text, e.g. 'SE a E b ENTÃO c' (repeatable)")
	pf.Int("max-depth", 4096, "Deepest goal chain a proof may follow")
	pf.Bool("fallback", false, "Try later rules when the first rule for a goal fails")
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pf.Bool("log-json", false, "Log as JSON")
	pf.String("journal", "", "SQLite journal path (empty keeps the journal in memory)")

	_ = v.BindPFlag("max_depth", pf.Lookup("max-depth"))
	_ = v.BindPFlag("rule_fallback", pf.Lookup("fallback"))
	_ = v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log.json", pf.Lookup("log-json"))
	_ = v.BindPFlag("journal.path", pf.Lookup("journal"))

	root.AddCommand(newREPLCmd(v, flags))
	root.AddCommand(newProveCmd(v, flags))
	root.AddCommand(newExplainCmd(v, flags))
	root.AddCommand(newSaturateCmd(v, flags))
	root.AddCommand(newHistoryCmd(v, flags))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the sbc command tree against os.Args
func Execute() error {
	return NewRootCmd().Execute()
}
