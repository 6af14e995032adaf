package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cognicore/sbc/pkg/sbc"
	"github.com/cognicore/sbc/pkg/sbc/internalerr"
	"github.com/cognicore/sbc/pkg/sbc/ruletext"
)

const menu = `Escolha uma opção:
  fato <fato>                  Adicionar Fato
  regra SE X E Y ENTÃO Z       Adicionar Regra
  verificar <objetivo>         Verificar Objetivo (encadeamento para trás)
  misto <objetivo>             Saturar e depois verificar
  saturar                      Encadeamento para frente
  explicar <objetivo>          Explicar
  fatos                        Listar fatos
  regras                       Listar regras
  historico [n]                Últimas operações da sessão
  ajuda                        Mostrar este menu
  sair                         Sair
`

func newREPLCmd(v *viper.Viper, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Interactive menu (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, v, flags)
		},
	}
}

func runREPL(cmd *cobra.Command, v *viper.Viper, flags *rootFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, cleanup, err := buildApp(ctx, v, flags)
	if err != nil {
		return err
	}
	defer cleanup()

	r := &REPL{
		Session: a.session,
		In:      cmd.InOrStdin(),
		Out:     cmd.OutOrStdout(),
		Logger:  a.logger,
	}
	return r.Run(ctx)
}

// REPL is the interactive menu over one session
type REPL struct {
	Session *sbc.Session
	In      io.Reader
	Out     io.Writer
	Logger  *zap.Logger
}

// Run reads commands until "sair" or end of input
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.Out, "===========================================")
	fmt.Fprintln(r.Out, "  Sistema Baseado em Conhecimento")
	fmt.Fprintln(r.Out, "===========================================")
	fmt.Fprint(r.Out, menu)

	scanner := bufio.NewScanner(r.In)
	for {
		fmt.Fprint(r.Out, "> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit, err := r.Dispatch(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			fmt.Fprintln(r.Out, "Erro:", err)
		}
		if quit {
			r.logger().Debug("menu closed")
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	fmt.Fprintln(r.Out, "\nAté logo!")
	return nil
}

// Dispatch runs one menu line. It reports quit=true for "sair".
func (r *REPL) Dispatch(ctx context.Context, line string) (bool, error) {
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(verb) {
	case "fato":
		added, err := r.Session.AddFact(ctx, arg)
		if added {
			fmt.Fprintf(r.Out, "Fato '%s' adicionado.\n", arg)
		}
		return false, err

	case "regra":
		rule, ok, err := r.Session.AddRuleText(ctx, arg)
		if ok {
			fmt.Fprintf(r.Out, "Regra adicionada: %s\n", ruletext.Format(rule))
		}
		return false, err

	case "verificar":
		if arg == "" {
			return false, nil
		}
		proven, err := r.Session.Prove(ctx, arg)
		return false, r.printProof(arg, proven, err)

	case "misto":
		if arg == "" {
			return false, nil
		}
		proven, err := r.Session.ProveMixed(ctx, arg)
		return false, r.printProof(arg, proven, err)

	case "saturar":
		added, err := r.Session.Saturate(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(r.Out, "Saturação concluída: %d novo(s) fato(s).\n", added)
		return false, nil

	case "explicar":
		if arg == "" {
			return false, nil
		}
		text, err := r.Session.Explain(ctx, arg)
		fmt.Fprintln(r.Out, text)
		return false, err

	case "fatos":
		facts := r.Session.Facts()
		if len(facts) == 0 {
			fmt.Fprintln(r.Out, "Nenhum fato.")
		}
		for _, f := range facts {
			fmt.Fprintln(r.Out, " ", f)
		}
		return false, nil

	case "regras":
		rules := r.Session.Rules()
		if len(rules) == 0 {
			fmt.Fprintln(r.Out, "Nenhuma regra.")
		}
		for i, rule := range rules {
			fmt.Fprintf(r.Out, "  %d. %s\n", i+1, ruletext.Format(rule))
		}
		return false, nil

	case "historico":
		limit := 0
		if arg != "" {
			if _, err := fmt.Sscanf(arg, "%d", &limit); err != nil {
				return false, fmt.Errorf("historico %q: %w", arg, internalerr.ErrInvalidInput)
			}
		}
		entries, err := r.Session.History(ctx, limit)
		if err != nil {
			return false, err
		}
		printEntries(r.Out, entries)
		return false, nil

	case "ajuda", "menu":
		fmt.Fprint(r.Out, menu)
		return false, nil

	case "sair":
		return true, nil

	default:
		r.logger().Debug("unknown menu verb", zap.String("verb", verb))
		fmt.Fprintf(r.Out, "Opção desconhecida: %s (digite 'ajuda')\n", verb)
		return false, nil
	}
}

func (r *REPL) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *REPL) printProof(goal string, proven bool, err error) error {
	if err != nil && !errors.Is(err, internalerr.ErrStoreUnavailable) {
		return err
	}
	fmt.Fprintf(r.Out, "Pode provar %s = Sim? %s\n", goal, pyBool(proven))
	return err
}

// pyBool spells a boolean as True or False
func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
