package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juju/loggo"
	"golang.org/x/sync/errgroup"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/config"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/credentials"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/graph"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/naming"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/policy"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rules"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/secrets"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/stackref"
)

var logger = loggo.GetLogger("azhub.engine")

// Dependencies are the collaborators of DefaultEngine. Publisher, Secrets
// and Submitter are only used when a run applies.
type Dependencies struct {
	Outputs     stackref.Registry
	Publisher   stackref.Publisher
	Attacher    *policy.Attacher
	Credentials *credentials.Resource
	Secrets     secrets.Store
	Submitter   Submitter
}

// DefaultEngine is the production implementation of Engine.
type DefaultEngine struct {
	cfg  *config.Config
	deps Dependencies
	now  func() time.Time
}

// NewDefaultEngine constructs a DefaultEngine for cfg. A nil Attacher
// defaults to the process-wide priority registry.
func NewDefaultEngine(cfg *config.Config, deps Dependencies) *DefaultEngine {
	if deps.Attacher == nil {
		deps.Attacher = policy.NewDefaultAttacher()
	}
	return &DefaultEngine{cfg: cfg, deps: deps, now: time.Now}
}

// RunStage implements Engine.
//
// Attachment failures are isolated: each failed attachment is recorded in
// the plan and the remaining attachments still complete. The returned error
// joins every failure; the plan is returned alongside it whenever one could
// be built.
func (e *DefaultEngine) RunStage(ctx context.Context, opts StageOptions) (*models.StagePlan, error) {
	p, ok := presets[opts.Stage]
	if !ok {
		return nil, fmt.Errorf("unknown stage %q", opts.Stage)
	}
	if opts.Apply && e.deps.Submitter == nil {
		return nil, fmt.Errorf("stage %q: apply requested without a submitter", opts.Stage)
	}
	group := p.group(e.cfg.Groups)
	stack := e.cfg.Stack.Name

	set, err := e.composeRules(opts, p)
	if err != nil {
		return nil, fmt.Errorf("stage %q: %w", opts.Stage, err)
	}

	roots, ownsRoot, err := e.resolveRoots(ctx, opts, group)
	if err != nil {
		return nil, fmt.Errorf("stage %q: %w", opts.Stage, err)
	}

	plan := &models.StagePlan{
		PlanID:      uuid.NewString(),
		GeneratedAt: e.now().UTC(),
		Stage:       string(opts.Stage),
		Stack:       stack,
	}
	g := graph.New()
	var errs []error

	for _, root := range roots {
		if err := g.Add(e.rootIntent(root, ownsRoot)); err != nil {
			return nil, fmt.Errorf("stage %q: %w", opts.Stage, err)
		}
	}

	priority := opts.GroupPriority
	if priority == 0 {
		priority = policy.GroupPriority(string(opts.Stage), p.priority, opts.RulesFile)
	}
	name := naming.Name(stack, group, "fw-group")

	// Priorities claimed by this run are released when it fails after
	// attaching.
	var handles []*models.AttachmentHandle
	release := func() {
		for _, h := range handles {
			e.deps.Attacher.Detach(h)
		}
	}
	fail := func(err error) (*models.StagePlan, error) {
		release()
		return nil, fmt.Errorf("stage %q: %w", opts.Stage, err)
	}

	var attached []string
	if !set.Empty() {
		for _, root := range roots {
			h, err := e.deps.Attacher.Attach(root, set, priority, name)
			if err != nil {
				logger.Warningf("attaching %q to %s: %v", name, root.Key(), err)
				plan.Failures = append(plan.Failures, models.AttachmentFailure{
					Attachment: name,
					RootPolicy: root.Key(),
					Error:      err.Error(),
				})
				errs = append(errs, fmt.Errorf("attach %q to %s: %w", name, root.Key(), err))
				continue
			}
			handles = append(handles, h)
			plan.Attachments = append(plan.Attachments, h.Attachment)
			attached = append(attached, h.Intent.Name)
			if err := g.Add(h.Intent); err != nil {
				return fail(err)
			}
		}
	}

	if len(p.workloads) > 0 {
		summaries, intents, err := e.prepareWorkloads(ctx, opts, stack, group, p.workloads, attached)
		if err != nil {
			return fail(err)
		}
		plan.Credentials = summaries
		for _, in := range intents {
			if err := g.Add(in); err != nil {
				return fail(err)
			}
		}
	}

	plan.Intents, err = g.Order()
	if err != nil {
		return fail(err)
	}
	plan.Summary = summarize(plan, set)

	if opts.Apply {
		if err := e.apply(ctx, opts, plan, roots, ownsRoot); err != nil {
			release()
			errs = append(errs, err)
		}
	}

	logger.Infof("stage %s planned: %d attachments, %d failures, %d intents",
		opts.Stage, plan.Summary.Attachments, plan.Summary.FailedAttachment, plan.Summary.Intents)
	return plan, errors.Join(errs...)
}

// ComposeRules returns the rule set a run of opts.Stage would attach. It
// reads no stack outputs and registers no priorities.
func (e *DefaultEngine) ComposeRules(opts StageOptions) (models.RuleSet, error) {
	p, ok := presets[opts.Stage]
	if !ok {
		return models.RuleSet{}, fmt.Errorf("unknown stage %q", opts.Stage)
	}
	return e.composeRules(opts, p)
}

// composeRules renders the stage's packs, applies the rules file and composes
// the result. A stage without packs or fragments yields an empty set.
func (e *DefaultEngine) composeRules(opts StageOptions, p preset) (models.RuleSet, error) {
	ids := opts.Packs
	if len(ids) == 0 {
		ids = p.packs
	}
	providers, err := NewPacks(ids, e.cfg.Environment(opts.ACRName))
	if err != nil {
		return models.RuleSet{}, err
	}
	reg := rules.NewDefaultFragmentRegistry()
	for _, prov := range policy.ApplyRulesFile(providers, opts.RulesFile) {
		reg.Register(prov)
	}
	if len(reg.All()) == 0 {
		return models.RuleSet{}, nil
	}
	set, err := reg.Compose()
	if err != nil {
		return models.RuleSet{}, fmt.Errorf("compose rules: %w", err)
	}
	logger.Debugf("composed %d rules from %d fragments", set.RuleCount(), len(reg.All()))
	return set, nil
}

// resolveRoots returns the root policies the stage attaches to. The hub
// owns its root policy; every other stage reads it from the hub outputs.
func (e *DefaultEngine) resolveRoots(ctx context.Context, opts StageOptions, group string) ([]models.RootPolicy, bool, error) {
	var roots []models.RootPolicy
	owns := opts.Stage == StageHub
	if owns {
		roots = append(roots, e.hubRoot(group))
	} else {
		if e.deps.Outputs == nil {
			return nil, false, fmt.Errorf("no stack output registry configured")
		}
		hub, err := stackref.HubVnet(ctx, e.deps.Outputs, e.stageName(e.cfg.Groups.Hub))
		if err != nil {
			return nil, false, err
		}
		roots = append(roots, hub.RootPolicy())
	}

	seen := map[string]bool{roots[0].Key(): true}
	for _, r := range opts.AdditionalRoots {
		if seen[r.Key()] {
			continue
		}
		seen[r.Key()] = true
		roots = append(roots, r)
	}
	return roots, owns, nil
}

func (e *DefaultEngine) hubRoot(group string) models.RootPolicy {
	return models.RootPolicy{
		Name:              naming.Name(e.cfg.Stack.Name, group, "fw-policy"),
		ResourceGroupName: naming.GroupName(e.cfg.Stack.Name, group),
	}
}

func (e *DefaultEngine) stageName(group string) string {
	return stackref.StageName(e.cfg.Stack.Organization, group, e.cfg.Stack.Name)
}

// rootIntent returns the node for root. The hub declares its own policy;
// downstream stages only reference it.
func (e *DefaultEngine) rootIntent(root models.RootPolicy, owned bool) models.ResourceIntent {
	in := policy.RootIntent(root)
	if owned {
		in.External = false
		in.Properties = models.FirewallPolicySpec{
			Root:                   root,
			Location:               e.cfg.Azure.Location,
			Tier:                   "Basic",
			AutoLearnPrivateRanges: true,
		}
	}
	return in
}

// prepareWorkloads ensures one credential per workload concurrently and
// builds the credential, secret and workload intents. Secrets are published
// only when the run applies; vault secret intents are declared only for the
// Key Vault backend.
func (e *DefaultEngine) prepareWorkloads(
	ctx context.Context,
	opts StageOptions,
	stack, group string,
	workloads []workload,
	attached []string,
) ([]models.CredentialSummary, []models.ResourceIntent, error) {
	if e.deps.Credentials == nil {
		return nil, nil, fmt.Errorf("no credential store configured")
	}
	var vault string
	if e.cfg.Secrets.Backend == "keyvault" {
		v, err := e.vaultName(ctx)
		if err != nil {
			return nil, nil, err
		}
		vault = v
	}

	results := make([]credentials.Result, len(workloads))
	eg, egctx := errgroup.WithContext(ctx)
	for i, w := range workloads {
		name := naming.Name(stack, group, w.credential)
		eg.Go(func() error {
			res, err := e.deps.Credentials.EnsureGenerated(egctx, name, e.cfg.Credentials.PasswordLength)
			if err != nil {
				return fmt.Errorf("credential %q: %w", name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		summaries []models.CredentialSummary
		intents   []models.ResourceIntent
	)
	for i, w := range workloads {
		name := naming.Name(stack, group, w.credential)
		kp := results[i].Keypair
		fp, err := credentials.Fingerprint(kp)
		if err != nil {
			return nil, nil, fmt.Errorf("credential %q: %w", name, err)
		}
		summary := models.CredentialSummary{Name: name, Fingerprint: fp, Created: results[i].Created}
		if opts.Apply {
			if e.deps.Secrets == nil {
				return nil, nil, fmt.Errorf("credential %q: no secret store configured", name)
			}
			written, err := secrets.PublishKeypair(ctx, e.deps.Secrets, name, kp)
			if err != nil {
				return nil, nil, fmt.Errorf("credential %q: %w", name, err)
			}
			summary.Secrets = written
		}

		credIntent := credentialIntent(name, fp, e.cfg.Credentials.KeySize)
		// Secrets outside Key Vault are not Azure resources and get no intents.
		var secretIntents []models.ResourceIntent
		if vault != "" {
			secretIntents = secrets.KeypairIntents(name, credIntent.Name, vault)
		}
		preds := []string{credIntent.Name}
		for _, s := range secretIntents {
			preds = append(preds, s.Name)
		}
		preds = append(preds, attached...)

		summaries = append(summaries, summary)
		intents = append(intents, credIntent)
		intents = append(intents, secretIntents...)
		intents = append(intents, workloadIntent(w, naming.Name(stack, group, w.resource), group, name, kp, preds))
	}
	return summaries, intents, nil
}

// vaultName returns the configured vault, falling back to the shared stage
// outputs.
func (e *DefaultEngine) vaultName(ctx context.Context) (string, error) {
	if e.cfg.Secrets.VaultName != "" {
		return e.cfg.Secrets.VaultName, nil
	}
	if e.deps.Outputs == nil {
		return "", fmt.Errorf("no vault configured and no stack output registry")
	}
	shared, err := stackref.Shared(ctx, e.deps.Outputs, e.stageName(e.cfg.Groups.Shared))
	if err != nil {
		return "", fmt.Errorf("resolve vault: %w", err)
	}
	if shared.Vault.Name == "" {
		return "", fmt.Errorf("resolve vault: shared outputs carry no vault name")
	}
	return shared.Vault.Name, nil
}

func (e *DefaultEngine) apply(
	ctx context.Context,
	opts StageOptions,
	plan *models.StagePlan,
	roots []models.RootPolicy,
	ownsRoot bool,
) error {
	if err := e.deps.Submitter.Submit(ctx, plan.Intents); err != nil {
		return fmt.Errorf("submit stage %q: %w", opts.Stage, err)
	}
	plan.Applied = true

	if !ownsRoot || e.deps.Publisher == nil {
		return nil
	}
	root := roots[0]
	hub := models.HubVnetOutput{
		RsGroup:        models.ResourceOutput{Name: root.ResourceGroupName},
		FirewallPolicy: models.ResourceOutput{Name: root.Name},
	}
	out, err := stackref.Encode(hub)
	if err != nil {
		return fmt.Errorf("encode hub outputs: %w", err)
	}
	stage := e.stageName(e.cfg.Groups.Hub)
	if err := e.deps.Publisher.Publish(ctx, stage, out); err != nil {
		return fmt.Errorf("publish hub outputs: %w", err)
	}
	logger.Infof("published hub outputs to %s", stage)
	return nil
}

func summarize(plan *models.StagePlan, set models.RuleSet) models.StageSummary {
	s := models.StageSummary{
		Attachments:      len(plan.Attachments),
		FailedAttachment: len(plan.Failures),
		Credentials:      len(plan.Credentials),
		Intents:          len(plan.Intents),
	}
	if len(plan.Attachments) > 0 {
		if set.Network != nil {
			s.NetworkRules = set.Network.Len()
		}
		if set.Application != nil {
			s.ApplicationRules = set.Application.Len()
		}
	}
	return s
}
