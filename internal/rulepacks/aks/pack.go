// Package aks provides the firewall rule pack for the AKS spoke: outbound
// access to Azure platform services, DNS, the Cloudflare tunnel edge, the
// DevOps subnet and the FQDNs an AKS node pool needs to bootstrap.
package aks

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/azure-hub/internal/models"
	"github.com/pankaj-dahiya-devops/azure-hub/internal/rules"
)

// ID is the fragment provider ID of this pack.
const ID = "aks"

// cloudflareTunnelEdges are the Cloudflare tunnel edge addresses cloudflared
// connects to on port 7844.
var cloudflareTunnelEdges = []string{
	"198.41.192.167", "198.41.192.67", "198.41.192.57", "198.41.192.107",
	"198.41.192.27", "198.41.192.7", "198.41.192.227", "198.41.192.47",
	"198.41.192.37", "198.41.192.77", "198.41.200.13", "198.41.200.193",
	"198.41.200.33", "198.41.200.233", "198.41.200.53", "198.41.200.63",
	"198.41.200.113", "198.41.200.73", "198.41.200.43", "198.41.200.23",
}

type pack struct {
	env models.Environment
}

// New returns the AKS rule pack rendered for env. When env.ACRName is set
// the pack also allows pulling from the private registry.
func New(env models.Environment) rules.FragmentProvider {
	return pack{env: env}
}

func (p pack) ID() string { return ID }

func (p pack) Fragment() models.RuleFragment {
	aks := p.env.Subnets.AKS
	https := []models.ApplicationProtocol{{Type: models.ApplicationProtocolHTTPS, Port: 443}}

	net := []models.NetworkRule{
		{
			Name:            "azure-net-services-tags",
			Description:     "Allows internal services to connect to Azure Resources.",
			IPProtocols:     []models.NetworkProtocol{models.ProtocolTCP},
			SourceAddresses: []string{aks},
			DestinationAddresses: []string{
				"MicrosoftContainerRegistry",
				"AzureMonitor",
				"AzureBackup",
				"AzureKeyVault",
				"AzureContainerRegistry",
				"Storage",
				"AzureActiveDirectory",
			},
			DestinationPorts: []string{"443"},
		},
		{
			Name:            "aks-net-allows-commons-dns",
			Description:     "Others DNS.",
			IPProtocols:     []models.NetworkProtocol{models.ProtocolTCP, models.ProtocolUDP},
			SourceAddresses: []string{"*"},
			DestinationAddresses: []string{
				// Azure
				"168.63.129.16",
				// Cloudflare
				"1.1.1.1", "1.0.0.1",
				// Google
				"8.8.8.8", "8.8.4.4",
			},
			DestinationPorts: []string{"53"},
		},
		{
			Name:                 "aks-net-allows-cf-tunnel",
			Description:          "Allows Cloudflare Tunnel",
			IPProtocols:          []models.NetworkProtocol{models.ProtocolTCP, models.ProtocolUDP},
			SourceAddresses:      []string{aks},
			DestinationAddresses: append([]string(nil), cloudflareTunnelEdges...),
			DestinationPorts:     []string{"7844"},
		},
		{
			Name:                 "aks-net-allows-to-devops",
			Description:          "Allows AKS to access DevOps",
			IPProtocols:          []models.NetworkProtocol{models.ProtocolTCP, models.ProtocolUDP},
			SourceAddresses:      []string{aks},
			DestinationAddresses: []string{p.env.Subnets.DevOps},
			DestinationPorts:     []string{"80", "443", "22"},
		},
	}

	app := []models.ApplicationRule{
		{
			Name:            "aks-fqdn",
			Description:     "Azure Global required FQDN",
			SourceAddresses: []string{aks},
			TargetFQDNs: []string{
				fmt.Sprintf("*.hcp.%s.azmk8s.io", p.env.RegionCode),
				"mcr.microsoft.com",
				"*.data.mcr.microsoft.com",
				"mcr-0001.mcr-msedge.net",
				"management.azure.com",
				"login.microsoftonline.com",
				"packages.microsoft.com",
				"acs-mirror.azureedge.net",
				"acme-v02.api.letsencrypt.org",
				"api.cloudflare.com",
			},
			Protocols: https,
		},
		{
			Name:            "aks-app-allow-cloudflare",
			Description:     "Allows CF Tunnel to access to Cloudflare.",
			SourceAddresses: []string{aks},
			TargetFQDNs: []string{
				"*.argotunnel.com",
				"*.cftunnel.com",
				"*.cloudflareaccess.com",
				"*.cloudflareresearch.com",
			},
			Protocols: []models.ApplicationProtocol{
				{Type: models.ApplicationProtocolHTTPS, Port: 443},
				{Type: models.ApplicationProtocolHTTPS, Port: 7844},
			},
		},
	}

	if p.env.ACRName != "" {
		app = append(app, models.ApplicationRule{
			Name:            "aks-allows-pull-arc",
			Description:     "Only allows AKS to pull image from private ACR",
			SourceAddresses: []string{aks},
			TargetFQDNs:     []string{p.env.ACRName + ".azurecr.io"},
			Protocols:       https,
		})
	}

	return models.RuleFragment{Name: ID, NetworkRules: net, ApplicationRules: app}
}
