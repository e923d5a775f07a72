// Package naming derives Azure resource names from the stack name.
package naming

import "regexp"

var orderPrefix = regexp.MustCompile(`^\d+-`)

// Name returns "<stack>-<name>" or "<stack>-<name>-<suffix>". A leading
// ordering prefix such as "03-" is stripped from name first, so the group
// "03-aks" yields "dev-aks".
func Name(stack, name, suffix string) string {
	name = orderPrefix.ReplaceAllString(name, "")
	if suffix == "" {
		return stack + "-" + name
	}
	return stack + "-" + name + "-" + suffix
}

// GroupName returns the resource group name "<stack>-<name>". The ordering
// prefix is kept so groups sort by deployment stage.
func GroupName(stack, name string) string {
	return stack + "-" + name
}
