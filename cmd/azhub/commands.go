package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/juju/loggo"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/config"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/credentials"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/engine"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/graph"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/output"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/policy"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/render"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/secrets"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/version"
)

var logger = loggo.GetLogger("azhub.cmd")

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	backends   *backends
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithBackends(newBackends())
}

// newRootCmdWithBackends builds the command tree on b. Tests pass fakes.
func newRootCmdWithBackends(b *backends) *cobra.Command {
	g := &globalOptions{backends: b}
	root := &cobra.Command{
		Use:          "azhub",
		Short:        "Azure hub firewall rules, policy attachments and workload credentials",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if g.logLevel == "" {
				return nil
			}
			if err := loggo.ConfigureLoggers(g.logLevel); err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default: ~/.config/azure-hub/config.yaml)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", `Logger levels, e.g. "<root>=DEBUG" (overrides log_level in the config)`)

	root.AddCommand(newFirewallCmd(g))
	root.AddCommand(newSSHCmd(g))
	root.AddCommand(newExplainCmd())
	root.AddCommand(newDoctorCmd(g))
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfig reads the config file and applies its log_level unless
// --log-level was given.
func (g *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.NewDefaultLoader(g.configPath).Load()
	if err != nil {
		return nil, err
	}
	if g.logLevel == "" && cfg.LogLevel != "" {
		if err := loggo.ConfigureLoggers(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("log_level: %w", err)
		}
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
			return nil
		},
	}
}

func newFirewallCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firewall",
		Short: "Compose firewall rules and attach them to the hub policy",
	}
	cmd.AddCommand(newComposeCmd(g))
	cmd.AddCommand(newPlanCmd(g))
	return cmd
}

func newComposeCmd(g *globalOptions) *cobra.Command {
	var (
		stage     string
		packs     []string
		rulesFile string
		acrName   string
		reportFmt string
		describe  bool
		colored   bool
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a stage's rule collections without attaching them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkReportFormat(reportFmt); err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			rf, err := loadRulesFile(rulesFile)
			if err != nil {
				return err
			}

			eng := engine.NewDefaultEngine(cfg, engine.Dependencies{})
			set, err := eng.ComposeRules(engine.StageOptions{
				Stage:     engine.Stage(stage),
				Packs:     packs,
				RulesFile: rf,
				ACRName:   acrName,
			})
			if err != nil {
				return fmt.Errorf("compose failed: %w", err)
			}

			w := cmd.OutOrStdout()
			if reportFmt == string(engine.ReportFormatJSON) {
				return printJSON(w, set)
			}
			output.RenderRuleSet(w, set, output.TableOptions{Colored: colored, IncludeDescription: describe})
			return nil
		},
	}

	cmd.Flags().StringVar(&stage, "stage", string(engine.StageAKS), "Stage whose rule packs are composed: "+stageList())
	cmd.Flags().StringSliceVar(&packs, "pack", nil, "Rule pack(s) to compose instead of the stage defaults: "+strings.Join(engine.PackIDs(), ", "))
	cmd.Flags().StringVar(&rulesFile, "rules-file", "", "Rules file toggling packs and adding fragments")
	cmd.Flags().StringVar(&acrName, "acr-name", "", "Private container registry the AKS pack may pull from")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	cmd.Flags().BoolVar(&describe, "describe", false, "Include rule descriptions in the table")
	cmd.Flags().BoolVar(&colored, "color", false, "Colour status cells")
	return cmd
}

func newPlanCmd(g *globalOptions) *cobra.Command {
	var (
		stage     string
		packs     []string
		rulesFile string
		acrName   string
		roots     []string
		priority  int
		apply     bool
		reportFmt string
		out       string
		colored   bool
	)

	cmd := &cobra.Command{
		Use:     "plan",
		Aliases: []string{"attach"},
		Short:   "Plan (and with --apply, submit) one deployment stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkReportFormat(reportFmt); err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			rf, err := loadRulesFile(rulesFile)
			if err != nil {
				return err
			}
			extra, err := parseRoots(roots)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			deps, err := g.backends.dependencies(ctx, cfg, apply)
			if err != nil {
				return err
			}
			eng := engine.NewDefaultEngine(cfg, deps)

			plan, runErr := eng.RunStage(ctx, engine.StageOptions{
				Stage:           engine.Stage(stage),
				Packs:           packs,
				RulesFile:       rf,
				GroupPriority:   priority,
				AdditionalRoots: extra,
				ACRName:         acrName,
				Apply:           apply,
			})
			if plan == nil {
				return fmt.Errorf("stage failed: %w", runErr)
			}

			if out != "" {
				if err := writePlanToFile(out, plan); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			if reportFmt == string(engine.ReportFormatJSON) {
				if err := printJSON(w, plan); err != nil {
					return err
				}
			} else {
				output.RenderPlan(w, plan, output.TableOptions{Colored: colored})
			}

			if runErr != nil {
				return fmt.Errorf("stage %s finished with errors: %w", stage, runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stage, "stage", "", "Stage to run: "+stageList())
	cmd.Flags().StringSliceVar(&packs, "pack", nil, "Rule pack(s) to attach instead of the stage defaults")
	cmd.Flags().StringVar(&rulesFile, "rules-file", "", "Rules file toggling packs, priorities and extra fragments")
	cmd.Flags().StringVar(&acrName, "acr-name", "", "Private container registry the AKS pack may pull from")
	cmd.Flags().StringSliceVar(&roots, "root", nil, `Additional root policy as "<resource-group>/<policy>" (repeatable)`)
	cmd.Flags().IntVar(&priority, "priority", 0, "Rule collection group priority (default: rules file, then stage default)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Submit the intents and publish generated secrets")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	cmd.Flags().StringVar(&out, "output", "", "Write the full JSON plan to this file path (in addition to stdout output)")
	cmd.Flags().BoolVar(&colored, "color", false, "Colour status cells")
	_ = cmd.MarkFlagRequired("stage")
	return cmd
}

func newSSHCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssh",
		Short: "Manage generated SSH credentials",
	}
	cmd.AddCommand(newSSHGenerateCmd(g))
	cmd.AddCommand(newSSHForgetCmd(g))
	return cmd
}

func newSSHGenerateCmd(g *globalOptions) *cobra.Command {
	var (
		name     string
		password string
		publish  bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create an SSH keypair, or return the stored one unchanged",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res := g.backends.credentials(cfg)

			var r credentials.Result
			if password != "" {
				r, err = res.Ensure(ctx, name, password)
			} else {
				r, err = res.EnsureGenerated(ctx, name, cfg.Credentials.PasswordLength)
			}
			if err != nil {
				return err
			}
			fp, err := credentials.Fingerprint(r.Keypair)
			if err != nil {
				return err
			}

			var published []string
			if publish {
				outputs, err := g.backends.outputs(ctx, cfg)
				if err != nil {
					return err
				}
				store, err := g.backends.secretStore(ctx, cfg, outputs, g.backends.lazyAzure(cfg))
				if err != nil {
					return err
				}
				published, err = secrets.PublishKeypair(ctx, store, name, r.Keypair)
				if err != nil {
					return err
				}
			}

			printCredential(cmd.OutOrStdout(), name, r, fp, published)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Logical credential name, e.g. dev-aks-ssh")
	cmd.Flags().StringVar(&password, "password", "", "Key passphrase (default: generate one, or reuse the stored one)")
	cmd.Flags().BoolVar(&publish, "publish", false, "Write the keypair to the configured secret store")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newSSHForgetCmd(g *globalOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Drop a stored credential so the next run generates a new one",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if err := g.backends.credentials(cfg).Forget(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot credential %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Logical credential name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newExplainCmd() *cobra.Command {
	var (
		planPath   string
		intentName string
		reportFmt  string
	)

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show what an intent of a saved plan depends on",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkReportFormat(reportFmt); err != nil {
				return err
			}
			plan, err := readPlanFile(planPath)
			if err != nil {
				return err
			}
			target, err := render.FindIntent(plan.Intents, intentName)
			if err != nil {
				return err
			}

			g := graph.New()
			for _, in := range plan.Intents {
				if err := g.Add(in); err != nil {
					return fmt.Errorf("plan %s: %w", planPath, err)
				}
			}
			chain, err := g.Chain(target.Name)
			if err != nil {
				return fmt.Errorf("plan %s: %w", planPath, err)
			}

			w := cmd.OutOrStdout()
			if reportFmt == string(engine.ReportFormatJSON) {
				return render.WriteExplainJSON(w, chain, target.Name)
			}
			render.RenderIntentChain(w, chain)
			return nil
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "JSON plan written by firewall plan --output")
	cmd.Flags().StringVar(&intentName, "intent", "", "Intent name or its unique last path segment")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("intent")
	return cmd
}

// loadRulesFile loads and validates path. An empty path means no rules file.
func loadRulesFile(path string) (*policy.RulesFile, error) {
	if path == "" {
		return nil, nil
	}
	rf, err := policy.LoadRulesFile(path)
	if err != nil {
		return nil, fmt.Errorf("load rules file %s: %w", path, err)
	}
	if errs := policy.Validate(rf, engine.PackIDs()); len(errs) > 0 {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, errors.Join(errs...))
	}
	return rf, nil
}

// parseRoots parses "<resource-group>/<policy>" references.
func parseRoots(values []string) ([]models.RootPolicy, error) {
	var roots []models.RootPolicy
	for _, v := range values {
		rg, name, ok := strings.Cut(v, "/")
		if !ok || rg == "" || name == "" || strings.Contains(name, "/") {
			return nil, fmt.Errorf("--root %q: want <resource-group>/<policy>", v)
		}
		roots = append(roots, models.RootPolicy{Name: name, ResourceGroupName: rg})
	}
	return roots, nil
}

func checkReportFormat(f string) error {
	switch engine.ReportFormat(f) {
	case engine.ReportFormatJSON, engine.ReportFormatTable:
		return nil
	}
	return fmt.Errorf("--report %q: want json or table", f)
}

func stageList() string {
	var names []string
	for _, s := range engine.Stages() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// printJSON writes v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writePlanToFile marshals plan as indented JSON and writes it to path.
func writePlanToFile(path string, plan *models.StagePlan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write plan to %s: %w", path, err)
	}
	return nil
}

func readPlanFile(path string) (*models.StagePlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	var plan models.StagePlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan %s: %w", path, err)
	}
	return &plan, nil
}

// printCredential writes the non-secret view of a credential. The public key
// is printed so it can be pasted into authorized_keys.
func printCredential(w io.Writer, name string, r credentials.Result, fingerprint string, published []string) {
	status := "unchanged"
	if r.Created {
		status = "created"
	}
	fmt.Fprintf(w, "Credential %s: %s (state %s)\n", name, status, r.State)
	fmt.Fprintf(w, "Fingerprint: %s\n", fingerprint)
	if len(published) > 0 {
		fmt.Fprintf(w, "Published: %s\n", strings.Join(published, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, r.Keypair.PublicKey)
	if !strings.HasSuffix(r.Keypair.PublicKey, "\n") {
		fmt.Fprintln(w)
	}
}
