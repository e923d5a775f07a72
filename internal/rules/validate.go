package rules

import (
	"fmt"
	"net/netip"
	"regexp"
	"strconv"
	"strings"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
)

var (
	// serviceTagPattern matches Azure service tags with an optional regional
	// suffix, e.g. "AzureKeyVault" or "AzureCloud.southeastasia".
	serviceTagPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(\.[A-Za-z0-9]+)?$`)

	// fqdnPattern matches host names with an optional leading "*." wildcard.
	fqdnPattern = regexp.MustCompile(`^(\*\.)?[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?(\.[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?)*$`)
)

var validNetworkProtocols = map[models.NetworkProtocol]struct{}{
	models.ProtocolTCP:  {},
	models.ProtocolUDP:  {},
	models.ProtocolICMP: {},
	models.ProtocolAny:  {},
}

var validApplicationProtocols = map[models.ApplicationProtocolType]struct{}{
	models.ApplicationProtocolHTTP:  {},
	models.ApplicationProtocolHTTPS: {},
	models.ApplicationProtocolMssql: {},
}

// Validate checks every rule of every fragment and returns a *ValidationError
// listing all problems found, or nil when the fragments can be composed.
//
// Checks performed:
//   - rule names are non-empty and unique across all fragments and both kinds
//   - network rules have protocols, sources, destinations and ports
//   - application rules have sources, at least one FQDN or FQDN tag, and
//     at least one protocol/port pair
//   - addresses are IPs, CIDRs, IP ranges, "*" or service tags
//   - ports are "*", 1-65535 or an ascending "a-b" range
//
// All problems are collected before returning; Validate never stops at the
// first one.
func Validate(fragments []models.RuleFragment) error {
	var problems []Problem
	declaredIn := make(map[string]string)

	checkName := func(fragment, name string) {
		if strings.TrimSpace(name) == "" {
			problems = append(problems, Problem{Fragment: fragment, Reason: "rule name is empty"})
			return
		}
		if first, ok := declaredIn[name]; ok {
			problems = append(problems, Problem{
				Fragment: fragment,
				Rule:     name,
				Reason:   fmt.Sprintf("duplicate rule name (first declared in fragment %q)", first),
			})
			return
		}
		declaredIn[name] = fragment
	}

	for _, f := range fragments {
		for _, r := range f.NetworkRules {
			checkName(f.Name, r.Name)
			for _, reason := range networkRuleProblems(r) {
				problems = append(problems, Problem{Fragment: f.Name, Rule: r.Name, Reason: reason})
			}
		}
		for _, r := range f.ApplicationRules {
			checkName(f.Name, r.Name)
			for _, reason := range applicationRuleProblems(r) {
				problems = append(problems, Problem{Fragment: f.Name, Rule: r.Name, Reason: reason})
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

func networkRuleProblems(r models.NetworkRule) []string {
	var out []string
	if len(r.IPProtocols) == 0 {
		out = append(out, "no IP protocols")
	}
	for _, p := range r.IPProtocols {
		if _, ok := validNetworkProtocols[p]; !ok {
			out = append(out, fmt.Sprintf("unknown IP protocol %q", p))
		}
	}
	out = append(out, addressProblems("source", r.SourceAddresses)...)
	out = append(out, addressProblems("destination", r.DestinationAddresses)...)
	if len(r.DestinationPorts) == 0 {
		out = append(out, "no destination ports")
	}
	for _, p := range r.DestinationPorts {
		if !validPort(p) {
			out = append(out, fmt.Sprintf("invalid destination port %q", p))
		}
	}
	return out
}

func applicationRuleProblems(r models.ApplicationRule) []string {
	var out []string
	out = append(out, addressProblems("source", r.SourceAddresses)...)
	if len(r.TargetFQDNs) == 0 && len(r.FQDNTags) == 0 {
		out = append(out, "no target FQDNs or FQDN tags")
	}
	for _, fqdn := range r.TargetFQDNs {
		if fqdn != "*" && !fqdnPattern.MatchString(fqdn) {
			out = append(out, fmt.Sprintf("invalid target FQDN %q", fqdn))
		}
	}
	for _, tag := range r.FQDNTags {
		if !serviceTagPattern.MatchString(tag) {
			out = append(out, fmt.Sprintf("invalid FQDN tag %q", tag))
		}
	}
	if len(r.Protocols) == 0 {
		out = append(out, "no protocol/port pairs")
	}
	for _, p := range r.Protocols {
		if _, ok := validApplicationProtocols[p.Type]; !ok {
			out = append(out, fmt.Sprintf("unknown application protocol %q", p.Type))
		}
		if p.Port < 1 || p.Port > 65535 {
			out = append(out, fmt.Sprintf("invalid %s port %d", p.Type, p.Port))
		}
	}
	return out
}

func addressProblems(side string, addrs []string) []string {
	if len(addrs) == 0 {
		return []string{fmt.Sprintf("no %s addresses", side)}
	}
	var out []string
	for _, a := range addrs {
		if !validAddress(a) {
			out = append(out, fmt.Sprintf("invalid %s address %q", side, a))
		}
	}
	return out
}

// validAddress accepts "*", IPs, CIDRs, "a-b" IP ranges and service tags.
func validAddress(a string) bool {
	if a == "*" {
		return true
	}
	if _, err := netip.ParseAddr(a); err == nil {
		return true
	}
	if _, err := netip.ParsePrefix(a); err == nil {
		return true
	}
	if from, to, ok := strings.Cut(a, "-"); ok {
		lo, err1 := netip.ParseAddr(from)
		hi, err2 := netip.ParseAddr(to)
		if err1 == nil && err2 == nil {
			return lo.Is4() == hi.Is4() && lo.Compare(hi) <= 0
		}
	}
	return serviceTagPattern.MatchString(a)
}

func validPort(p string) bool {
	if p == "*" {
		return true
	}
	if from, to, ok := strings.Cut(p, "-"); ok {
		lo, okLo := portNumber(from)
		hi, okHi := portNumber(to)
		return okLo && okHi && lo <= hi
	}
	_, ok := portNumber(p)
	return ok
}

func portNumber(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return 0, false
	}
	return n, true
}
