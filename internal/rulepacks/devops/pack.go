// Package devops provides the firewall rule pack for the DevOps subnet.
package devops

import (
	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rules"
)

// ID is the fragment provider ID of this pack.
const ID = "devops"

type pack struct {
	env models.Environment
}

// New returns the DevOps rule pack rendered for env. The pack has network
// rules only.
func New(env models.Environment) rules.FragmentProvider {
	return pack{env: env}
}

func (p pack) ID() string { return ID }

func (p pack) Fragment() models.RuleFragment {
	return models.RuleFragment{
		Name: ID,
		NetworkRules: []models.NetworkRule{
			{
				Name:                 "devops-to-aks",
				Description:          "Allows devops to internet.",
				IPProtocols:          []models.NetworkProtocol{models.ProtocolTCP, models.ProtocolUDP},
				SourceAddresses:      []string{p.env.Subnets.DevOps},
				DestinationAddresses: []string{"*"},
				DestinationPorts:     []string{"443", "80"},
			},
		},
	}
}
