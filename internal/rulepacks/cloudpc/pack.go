// Package cloudpc provides the firewall rule pack for the CloudPC spoke:
// access to AKS and DevOps, regional Azure services and the Windows 365
// service endpoints.
package cloudpc

import (
	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rules"
)

// ID is the fragment provider ID of this pack.
const ID = "cloudpc"

type pack struct {
	env models.Environment
}

// New returns the CloudPC rule pack rendered for env.
func New(env models.Environment) rules.FragmentProvider {
	return pack{env: env}
}

func (p pack) ID() string { return ID }

func (p pack) Fragment() models.RuleFragment {
	pc := p.env.Subnets.CloudPC
	tcp := []models.NetworkProtocol{models.ProtocolTCP}
	https := []models.ApplicationProtocol{{Type: models.ApplicationProtocolHTTPS, Port: 443}}

	return models.RuleFragment{
		Name: ID,
		NetworkRules: []models.NetworkRule{
			{
				Name:                 "cloudPC-to-aks",
				Description:          "Allows CloudPC access to AKS and DevOps.",
				IPProtocols:          tcp,
				SourceAddresses:      []string{pc},
				DestinationAddresses: []string{p.env.Subnets.DevOps, p.env.Subnets.AKS},
				DestinationPorts:     []string{"443"},
			},
			{
				Name:                 "cloudPC-services-tags",
				Description:          "Allows CloudPC access to Azure Resources.",
				IPProtocols:          tcp,
				SourceAddresses:      []string{pc},
				DestinationAddresses: []string{"AzureCloud." + p.env.RegionCode},
				DestinationPorts:     []string{"443"},
			},
			{
				Name:                 "cloudPC-net-allow-win365-windows-net",
				Description:          "CloudPc allows Windows 365 windows.net",
				IPProtocols:          tcp,
				SourceAddresses:      []string{pc},
				DestinationAddresses: []string{"40.83.235.53"},
				DestinationPorts:     []string{"1688"},
			},
			{
				Name:            "cloudPC-net-allow-win365-azure-devices",
				Description:     "CloudPc allows Windows 365 azure-devices",
				IPProtocols:     tcp,
				SourceAddresses: []string{pc},
				DestinationAddresses: []string{
					"23.98.104.204", "40.78.238.4", "20.150.179.224",
					"52.236.189.131", "13.69.71.14", "13.69.71.2",
					"13.70.74.193", "13.86.221.39", "13.86.221.36",
					"13.86.221.43",
				},
				DestinationPorts: []string{"443", "5671"},
			},
			{
				Name:                 "cloudPC-net-allow-win365-udp-tcp",
				Description:          "CloudPc allows Windows 365 udp tcp",
				IPProtocols:          []models.NetworkProtocol{models.ProtocolUDP, models.ProtocolTCP},
				SourceAddresses:      []string{pc},
				DestinationAddresses: []string{"20.202.0.0/16"},
				DestinationPorts:     []string{"443", "3478"},
			},
		},
		ApplicationRules: []models.ApplicationRule{
			{
				Name:            "cloudPC-app-allow-update",
				Description:     "Allows Windows Updates",
				SourceAddresses: []string{pc},
				FQDNTags:        []string{"WindowsUpdate", "WindowsDiagnostics", "AzureBackup"},
				Protocols:       https,
			},
			{
				Name:            "cloudPC-app-allow-win365",
				Description:     "Allows Windows365",
				SourceAddresses: []string{pc},
				FQDNTags:        []string{"Windows365", "MicrosoftIntune"},
				Protocols:       https,
			},
		},
	}
}
