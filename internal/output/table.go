// Package output renders rule sets and stage plans as text tables.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

// ANSI color codes for status output (used when Colored=true).
const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[0;31m"
	ansiGreen = "\033[0;32m"
)

// TableOptions controls which columns are rendered and whether status
// cells are coloured.
type TableOptions struct {
	// Colored wraps status labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeDescription adds a DESCRIPTION column to rule tables.
	IncludeDescription bool
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// statusCell returns status padded to width. Only the text is coloured so
// trailing padding stays aligned.
func statusCell(status string, ok bool, width int, colored bool) string {
	if !colored {
		return fmt.Sprintf("%-*s", width, status)
	}
	code := ansiGreen
	if !ok {
		code = ansiRed
	}
	spaces := max(width-len(status), 0)
	return code + status + ansiReset + strings.Repeat(" ", spaces)
}

func joinList(items []string, width int) string {
	return ShortenMessage(strings.Join(items, ","), width)
}

// RenderRuleSet writes one row per rule, grouped by collection in priority
// order.
//
// Column order:
//
//	COLLECTION  PRIORITY  RULE  PROTOCOLS  SOURCES  DESTINATIONS  PORTS  [DESCRIPTION]
func RenderRuleSet(w io.Writer, set models.RuleSet, opts TableOptions) {
	if set.Empty() {
		fmt.Fprintln(w, "No rules.")
		return
	}

	const (
		wCollection = 20
		wPriority   = 8
		wRule       = 38
		wProtocols  = 12
		wSources    = 22
		wDests      = 40
		wPorts      = 12
		wDesc       = 40
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wCollection, "COLLECTION"))
	hb.WriteString(fmt.Sprintf("  %-*s", wPriority, "PRIORITY"))
	hb.WriteString(fmt.Sprintf("  %-*s", wRule, "RULE"))
	hb.WriteString(fmt.Sprintf("  %-*s", wProtocols, "PROTOCOLS"))
	hb.WriteString(fmt.Sprintf("  %-*s", wSources, "SOURCES"))
	hb.WriteString(fmt.Sprintf("  %-*s", wDests, "DESTINATIONS"))
	hb.WriteString(fmt.Sprintf("  %-*s", wPorts, "PORTS"))
	if opts.IncludeDescription {
		hb.WriteString(fmt.Sprintf("  %-*s", wDesc, "DESCRIPTION"))
	}
	header := strings.TrimRight(hb.String(), " ")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	row := func(c models.RuleCollection, name, desc string, protocols, sources, dests, ports []string) {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wCollection, ShortenMessage(c.Name, wCollection)))
		rb.WriteString(fmt.Sprintf("  %-*d", wPriority, c.Priority))
		rb.WriteString(fmt.Sprintf("  %-*s", wRule, ShortenMessage(name, wRule)))
		rb.WriteString(fmt.Sprintf("  %-*s", wProtocols, joinList(protocols, wProtocols)))
		rb.WriteString(fmt.Sprintf("  %-*s", wSources, joinList(sources, wSources)))
		rb.WriteString(fmt.Sprintf("  %-*s", wDests, joinList(dests, wDests)))
		rb.WriteString(fmt.Sprintf("  %-*s", wPorts, joinList(ports, wPorts)))
		if opts.IncludeDescription {
			rb.WriteString(fmt.Sprintf("  %-*s", wDesc, ShortenMessage(desc, wDesc)))
		}
		fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
	}

	for _, c := range set.Collections() {
		for _, r := range c.NetworkRules {
			protocols := make([]string, len(r.IPProtocols))
			for i, p := range r.IPProtocols {
				protocols[i] = string(p)
			}
			row(c, r.Name, r.Description, protocols, r.SourceAddresses, r.DestinationAddresses, r.DestinationPorts)
		}
		for _, r := range c.ApplicationRules {
			var protocols, ports []string
			for _, p := range r.Protocols {
				protocols = append(protocols, string(p.Type))
				ports = append(ports, fmt.Sprint(p.Port))
			}
			targets := append(append([]string(nil), r.TargetFQDNs...), r.FQDNTags...)
			row(c, r.Name, r.Description, protocols, r.SourceAddresses, targets, ports)
		}
	}
	fmt.Fprintf(w, "\n%d network rules, %d application rules\n", ruleCount(set.Network), ruleCount(set.Application))
}

func ruleCount(c *models.RuleCollection) int {
	if c == nil {
		return 0
	}
	return c.Len()
}

// RenderPlan writes a stage plan: attachments with their status, generated
// credentials and intents in apply order.
func RenderPlan(w io.Writer, plan *models.StagePlan, opts TableOptions) {
	fmt.Fprintf(w, "Stage %s (stack %s), plan %s\n", plan.Stage, plan.Stack, plan.PlanID)
	if plan.Applied {
		fmt.Fprintln(w, "Applied.")
	}
	fmt.Fprintln(w)

	const (
		wName     = 30
		wPolicy   = 40
		wPriority = 8
		wStatus   = 8
	)

	if len(plan.Attachments)+len(plan.Failures) == 0 {
		fmt.Fprintln(w, "No attachments.")
	} else {
		header := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %s",
			wName, "ATTACHMENT", wPolicy, "ROOT POLICY", wPriority, "PRIORITY", wStatus, "STATUS", "RULES")
		fmt.Fprintln(w, header)
		fmt.Fprintln(w, strings.Repeat("-", len(header)))
		for _, a := range plan.Attachments {
			fmt.Fprintf(w, "%-*s  %-*s  %-*d  %s  %d\n",
				wName, ShortenMessage(a.Name, wName),
				wPolicy, ShortenMessage(a.Root.Key(), wPolicy),
				wPriority, a.GroupPriority,
				statusCell("OK", true, wStatus, opts.Colored),
				a.RuleSet.RuleCount())
		}
		for _, f := range plan.Failures {
			fmt.Fprintf(w, "%-*s  %-*s  %-*s  %s  %s\n",
				wName, ShortenMessage(f.Attachment, wName),
				wPolicy, ShortenMessage(f.RootPolicy, wPolicy),
				wPriority, "-",
				statusCell("FAILED", false, wStatus, opts.Colored),
				f.Error)
		}
	}

	if len(plan.Credentials) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-*s  %-*s  %s\n", wName, "CREDENTIAL", 8, "NEW", "FINGERPRINT")
		for _, c := range plan.Credentials {
			created := "no"
			if c.Created {
				created = "yes"
			}
			fmt.Fprintf(w, "%-*s  %-*s  %s\n", wName, ShortenMessage(c.Name, wName), 8, created, c.Fingerprint)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Intents (apply order):")
	for i, in := range plan.Intents {
		marker := ""
		if in.External {
			marker = " (external)"
		}
		fmt.Fprintf(w, "  %2d. %s%s\n", i+1, in.Name, marker)
	}
}
