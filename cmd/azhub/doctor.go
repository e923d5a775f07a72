package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/config"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/providers/azure"
)

// DoctorResult is the structured output of azhub doctor. It can be serialised
// to JSON via --format=json or rendered as a human-readable table (default).
type DoctorResult struct {
	Config struct {
		Path    string   `json:"path"`
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"config"`

	StackOutputs struct {
		Backend   string `json:"backend,omitempty"`
		OK        bool   `json:"ok"`
		AccountID string `json:"account_id,omitempty"`
		Error     string `json:"error,omitempty"`
	} `json:"stack_outputs"`

	Azure struct {
		SubscriptionID string `json:"subscription_id,omitempty"`
		Credentials    bool   `json:"credentials_ok"`
		Error          string `json:"error,omitempty"`
	} `json:"azure"`

	// Kubernetes is only checked when secrets are written to a cluster.
	Kubernetes struct {
		Required     bool   `json:"required"`
		KubeconfigOK bool   `json:"kubeconfig_ok"`
		Context      string `json:"context,omitempty"`
		APIReachable bool   `json:"api_reachable"`
		Error        string `json:"error,omitempty"`
	} `json:"kubernetes"`

	OverallHealthy bool `json:"overall_healthy"`
}

func newDoctorCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			result, err := runDoctor(
				cmd.Context(),
				g.backends,
				config.NewDefaultLoader(g.configPath),
				cmd.OutOrStdout(),
				format,
			)
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text reaches main's stderr path.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result. The returned error covers only
// rendering failures; callers inspect result.OverallHealthy.
func runDoctor(ctx context.Context, b *backends, loader config.Loader, w io.Writer, format string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, b, loader)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}
	return result, nil
}

// collectDoctorResult runs all environment checks. A config that does not
// load skips every other check.
func collectDoctorResult(ctx context.Context, b *backends, loader config.Loader) DoctorResult {
	var result DoctorResult

	// Config: stat → load → validate (the file itself is optional).
	result.Config.Path = loader.ConfigPath()
	if _, err := os.Stat(result.Config.Path); err == nil {
		result.Config.Present = true
	}
	cfg, err := loader.Load()
	if err != nil {
		result.Config.Errors = []string{err.Error()}
		return result
	}
	result.Config.Valid = true

	// Stack outputs: the s3 backend needs working AWS credentials.
	result.StackOutputs.Backend = cfg.StackOutputs.Backend
	if cfg.StackOutputs.Backend == "s3" {
		profile, err := b.aws.LoadProfile(ctx, cfg.StackOutputs.Profile, cfg.StackOutputs.Region)
		if err != nil {
			result.StackOutputs.Error = err.Error()
		} else {
			result.StackOutputs.OK = true
			result.StackOutputs.AccountID = profile.AccountID
		}
	} else {
		result.StackOutputs.OK = true
	}

	// Azure: subscription → credential → management token.
	result.Azure.SubscriptionID = cfg.Azure.SubscriptionID
	cred, err := b.credential(cfg.Azure.TenantID)
	if err == nil {
		err = azure.CheckCredential(ctx, cred)
	}
	switch {
	case err != nil:
		result.Azure.Error = err.Error()
	case cfg.Azure.SubscriptionID == "":
		result.Azure.Error = "azure.subscription_id is not set"
	default:
		result.Azure.Credentials = true
	}

	// Kubernetes: kubeconfig load → context → API reachability probe.
	if cfg.Secrets.Backend == "kubernetes" {
		result.Kubernetes.Required = true
		clientset, info, err := b.kube.ClientsetForContext(cfg.Secrets.KubeContext)
		if err != nil {
			result.Kubernetes.Error = err.Error()
		} else {
			result.Kubernetes.KubeconfigOK = true
			result.Kubernetes.Context = info.ContextName
			_, err = clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1})
			if err != nil {
				result.Kubernetes.Error = err.Error()
			} else {
				result.Kubernetes.APIReachable = true
			}
		}
	}

	result.OverallHealthy = result.Config.Valid &&
		result.StackOutputs.OK &&
		result.Azure.Credentials &&
		(!result.Kubernetes.Required || (result.Kubernetes.KubeconfigOK && result.Kubernetes.APIReachable))

	return result
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	fmt.Fprintf(w, "\nConfig (%s):\n", result.Config.Path)
	if result.Config.Present {
		doctorPrint(w, "File present", "YES", "")
	} else {
		doctorPrint(w, "File present", "Not found (defaults)", "")
	}
	if !result.Config.Valid {
		for _, e := range result.Config.Errors {
			doctorPrint(w, "Config valid", "FAIL", e)
		}
		return
	}
	doctorPrint(w, "Config valid", "OK", "")

	fmt.Fprintf(w, "\nStack outputs (%s):\n", result.StackOutputs.Backend)
	switch {
	case !result.StackOutputs.OK:
		doctorPrint(w, "Backend", "FAIL", result.StackOutputs.Error)
	case result.StackOutputs.AccountID != "":
		doctorPrint(w, "Backend", "OK", "Account: "+result.StackOutputs.AccountID)
	default:
		doctorPrint(w, "Backend", "OK", "")
	}

	fmt.Fprintln(w, "\nAzure:")
	if result.Azure.Credentials {
		doctorPrint(w, "Credentials", "OK", "Subscription: "+result.Azure.SubscriptionID)
	} else {
		doctorPrint(w, "Credentials", "FAIL", result.Azure.Error)
	}

	fmt.Fprintln(w, "\nKubernetes:")
	switch {
	case !result.Kubernetes.Required:
		doctorPrint(w, "Kubeconfig", "Not required", "")
	case !result.Kubernetes.KubeconfigOK:
		doctorPrint(w, "Kubeconfig", "FAIL", result.Kubernetes.Error)
		doctorPrint(w, "Current Context", "FAIL", "skipped")
		doctorPrint(w, "API Reachable", "FAIL", "skipped")
	default:
		doctorPrint(w, "Kubeconfig", "OK", "")
		doctorPrint(w, "Current Context", "OK", result.Kubernetes.Context)
		if result.Kubernetes.APIReachable {
			doctorPrint(w, "API Reachable", "OK", "")
		} else {
			doctorPrint(w, "API Reachable", "FAIL", result.Kubernetes.Error)
		}
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
