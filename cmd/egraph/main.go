// Command egraph is a small CLI around the engine: seed an e-graph from
// one ground expression, saturate it against a named rule set, and
// report the resulting class structure, or explain why two expressions
// ended up equal. Rewrite rules themselves live in a rules.yaml file
// (loaded through runconfig and compiled, once per distinct rule text,
// through rulecache), so the same rule set can back any of run,
// explain, or classes.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/orneryd/slotted-egraph/egraph"
	"github.com/orneryd/slotted-egraph/internal/telemetry"
	"github.com/orneryd/slotted-egraph/internal/xlog"
	"github.com/orneryd/slotted-egraph/lambda"
	"github.com/orneryd/slotted-egraph/lang"
	"github.com/orneryd/slotted-egraph/pattern"
	"github.com/orneryd/slotted-egraph/proof"
	"github.com/orneryd/slotted-egraph/rulecache"
	"github.com/orneryd/slotted-egraph/runconfig"
	"github.com/orneryd/slotted-egraph/slot"
)

var version = "0.1.0"

// languages maps a runconfig language name to its lang.Language table.
// The engine itself is language-agnostic; this CLI only ships the one
// worked example language, the same role lambda.Lang plays in the
// engine's own tests.
var languages = map[string]lang.Language{
	"lambda": lambda.Lang,
}

func resolveLanguage(name string) (lang.Language, error) {
	lng, ok := languages[name]
	if !ok {
		return nil, fmt.Errorf("unknown language %q (known: lambda)", name)
	}
	return lng, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "egraph",
		Short: "Build and saturate slot-aware e-graphs",
		Long: `egraph seeds a slot-aware e-graph from one or more ground expressions,
saturates it against a named rewrite rule set, and reports the
resulting class structure or explains why two expressions are equal.

Rewrite rules are named in a rules.yaml run configuration, loaded via
--rules; compiling a rule's pattern text is memoized in an on-disk
cache so repeated runs against the same rule set skip re-parsing it.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("egraph v%s\n", version)
		},
	})

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newExplainCmd())
	rootCmd.AddCommand(newClassesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// prepare loads cfg from rulesPath (overridden by language/cache/maxIters
// when set), resolves its language, and compiles its rule set, ready for
// any of run/explain/classes to build a graph against.
func prepare(rulesPath, languageFlag, cacheFlag string, maxItersFlag int) (*runconfig.Config, lang.Language, []pattern.Rewrite, *rulecache.Cache, error) {
	cfg := runconfig.LoadFromEnvOrFile(rulesPath)
	if languageFlag != "" {
		cfg.Engine.Language = languageFlag
	}
	if cacheFlag != "" {
		cfg.Rules.CacheDir = cacheFlag
	}
	if maxItersFlag > 0 {
		cfg.Engine.MaxRounds = maxItersFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, nil, err
	}

	switch cfg.Logging.Level {
	case "DEBUG":
		xlog.SetLevel(xlog.LevelDebug)
	case "WARN":
		xlog.SetLevel(xlog.LevelWarn)
	case "ERROR":
		xlog.SetLevel(xlog.LevelError)
	default:
		xlog.SetLevel(xlog.LevelInfo)
	}

	lng, err := resolveLanguage(cfg.Engine.Language)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	cache, err := rulecache.Open(rulecache.Options{DataDir: cfg.Rules.CacheDir})
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("opening rule cache: %w", err)
	}

	rules := make([]pattern.Rewrite, 0, len(cfg.Rules.Defs))
	for _, def := range cfg.Rules.Defs {
		compiled, err := cache.GetOrCompile(lng, cfg.Engine.Language, def.Name, def.LHS, def.RHS)
		if err != nil {
			cache.Close()
			return nil, nil, nil, nil, fmt.Errorf("compiling rule %q: %w", def.Name, err)
		}
		rules = append(rules, compiled.Rewrite())
	}
	xlog.Info("loaded rule set", xlog.Fields{"language": cfg.Engine.Language, "rules": len(rules)})

	return cfg, lng, rules, cache, nil
}

// seed parses exprText against lng and adds it to g, recording one
// classes-added telemetry count per pattern-AST node added (an
// approximation: alpha-duplicate sub-expressions hashcons together and
// so add fewer real classes than this counts, but it is the only signal
// available at the CLI boundary without instrumenting Add itself — see
// DESIGN.md).
func seed(ctx context.Context, lng lang.Language, exprText string, g *egraph.EGraph) (lang.AppliedId, error) {
	p, err := pattern.Parse(lng, exprText)
	if err != nil {
		return lang.AppliedId{}, fmt.Errorf("parsing expression %q: %w", exprText, err)
	}
	root := pattern.PatternSubst(p, pattern.Subst{Vars: map[string]lang.AppliedId{}, Slots: map[string]slot.Slot{}}, g)
	for i := 0; i < patternNodeCount(p); i++ {
		telemetry.RecordClassAdded(ctx)
	}
	return root, nil
}

func patternNodeCount(p *pattern.Pattern) int {
	if p.Var != "" {
		return 0
	}
	n := 1
	for _, c := range p.Children {
		n += patternNodeCount(c)
	}
	return n
}

func newRunCmd() *cobra.Command {
	var rulesFlag, cacheFlag, languageFlag, exprFlag string
	var maxItersFlag int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Seed an e-graph from --expr and saturate it against --rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSaturation(rulesFlag, languageFlag, cacheFlag, exprFlag, maxItersFlag)
		},
	}
	cmd.Flags().StringVar(&rulesFlag, "rules", "", "path to a rules.yaml run configuration")
	cmd.Flags().StringVar(&exprFlag, "expr", "", "ground expression to seed the e-graph with")
	cmd.Flags().StringVar(&languageFlag, "language", "", "language name (overrides --rules)")
	cmd.Flags().StringVar(&cacheFlag, "cache", "", "rulecache directory (overrides --rules)")
	cmd.Flags().IntVar(&maxItersFlag, "max-iters", 0, "saturation round cap (overrides --rules)")
	_ = cmd.MarkFlagRequired("expr")
	return cmd
}

func runSaturation(rulesPath, languageFlag, cacheFlag, exprText string, maxItersFlag int) error {
	ctx, span := telemetry.StartSpan(context.Background(), "egraph.run")
	defer span.End()

	cfg, lng, rules, cache, err := prepare(rulesPath, languageFlag, cacheFlag, maxItersFlag)
	if err != nil {
		return err
	}
	defer cache.Close()

	g := egraph.New(cfg.Engine.AllowShrink)
	if _, err := seed(ctx, lng, exprText, g); err != nil {
		return err
	}

	start := time.Now()
	rounds := 0
	for ; rounds < cfg.Engine.MaxRounds; rounds++ {
		changed := 0
		for _, r := range rules {
			applied := r.Apply(g)
			for i := 0; i < applied; i++ {
				telemetry.RecordUnion(ctx, true)
			}
			changed += applied
		}
		if changed == 0 {
			break
		}
	}
	telemetry.RecordMatches(ctx, len(g.Classes()))
	elapsed := time.Since(start)

	fmt.Printf("saturated in %s rounds=%d classes=%s fingerprint=%016x\n",
		elapsed.Round(time.Microsecond), rounds, humanize.Comma(int64(len(g.Classes()))), g.Fingerprint())
	return nil
}

func newExplainCmd() *cobra.Command {
	var rulesFlag, cacheFlag, languageFlag, exprFlag, otherFlag string
	var maxItersFlag int

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Saturate, then explain why --expr and --other are equal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rulesFlag, languageFlag, cacheFlag, exprFlag, otherFlag, maxItersFlag)
		},
	}
	cmd.Flags().StringVar(&rulesFlag, "rules", "", "path to a rules.yaml run configuration")
	cmd.Flags().StringVar(&exprFlag, "expr", "", "first expression")
	cmd.Flags().StringVar(&otherFlag, "other", "", "second expression")
	cmd.Flags().StringVar(&languageFlag, "language", "", "language name (overrides --rules)")
	cmd.Flags().StringVar(&cacheFlag, "cache", "", "rulecache directory (overrides --rules)")
	cmd.Flags().IntVar(&maxItersFlag, "max-iters", 0, "saturation round cap (overrides --rules)")
	_ = cmd.MarkFlagRequired("expr")
	_ = cmd.MarkFlagRequired("other")
	return cmd
}

func runExplain(rulesPath, languageFlag, cacheFlag, exprText, otherText string, maxItersFlag int) error {
	ctx, span := telemetry.StartSpan(context.Background(), "egraph.explain")
	defer span.End()

	cfg, lng, rules, cache, err := prepare(rulesPath, languageFlag, cacheFlag, maxItersFlag)
	if err != nil {
		return err
	}
	defer cache.Close()

	g := egraph.New(cfg.Engine.AllowShrink)
	rootA, err := seed(ctx, lng, exprText, g)
	if err != nil {
		return err
	}
	rootB, err := seed(ctx, lng, otherText, g)
	if err != nil {
		return err
	}

	pattern.RunRewrites(g, rules, cfg.Engine.MaxRounds)

	p, ok := g.Explain(rootA, rootB)
	if !ok {
		fmt.Println("not equal: no proof connects the two expressions")
		return nil
	}
	fmt.Printf("equal: top-level proof kind = %s\n", proof.KindOf(proof.ProofOf(p)))
	return nil
}

func newClassesCmd() *cobra.Command {
	var rulesFlag, cacheFlag, languageFlag, exprFlag string
	var maxItersFlag int

	cmd := &cobra.Command{
		Use:   "classes",
		Short: "Saturate --expr against --rules and print the resulting classes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses(rulesFlag, languageFlag, cacheFlag, exprFlag, maxItersFlag)
		},
	}
	cmd.Flags().StringVar(&rulesFlag, "rules", "", "path to a rules.yaml run configuration")
	cmd.Flags().StringVar(&exprFlag, "expr", "", "ground expression to seed the e-graph with")
	cmd.Flags().StringVar(&languageFlag, "language", "", "language name (overrides --rules)")
	cmd.Flags().StringVar(&cacheFlag, "cache", "", "rulecache directory (overrides --rules)")
	cmd.Flags().IntVar(&maxItersFlag, "max-iters", 0, "saturation round cap (overrides --rules)")
	_ = cmd.MarkFlagRequired("expr")
	return cmd
}

func runClasses(rulesPath, languageFlag, cacheFlag, exprText string, maxItersFlag int) error {
	ctx, span := telemetry.StartSpan(context.Background(), "egraph.classes")
	defer span.End()

	cfg, lng, rules, cache, err := prepare(rulesPath, languageFlag, cacheFlag, maxItersFlag)
	if err != nil {
		return err
	}
	defer cache.Close()

	g := egraph.New(cfg.Engine.AllowShrink)
	if _, err := seed(ctx, lng, exprText, g); err != nil {
		return err
	}

	pattern.RunRewrites(g, rules, cfg.Engine.MaxRounds)
	telemetry.RecordMatches(ctx, len(g.Classes()))

	ids := make([]lang.ClassID, 0, len(g.Classes()))
	for id, cls := range g.Classes() {
		root := lang.Identity(id, cls.Slots)
		if g.Find(root).ID != id {
			continue
		}
		ids = append(ids, id)
	}
	fmt.Printf("%d live classes\n", len(ids))
	for _, id := range ids {
		cls, _ := g.Class(id)
		slots := make([]slot.Slot, 0, len(cls.Slots))
		for s := range cls.Slots {
			slots = append(slots, s)
		}
		fmt.Printf("class %d: slots=%v nodes=%d group_size=%d\n", id, slots, len(cls.Nodes), cls.Group.Size())
	}
	return nil
}
