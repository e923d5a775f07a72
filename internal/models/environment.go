package models

// SubnetSpaces holds the address prefixes of every subnet in the landing
// zone. Rule packs use them as rule sources and destinations.
type SubnetSpaces struct {
	Firewall       string `yaml:"firewall"        json:"firewall"`
	FirewallManage string `yaml:"firewall_manage" json:"firewall_manage"`
	General        string `yaml:"general"         json:"general"`
	AKS            string `yaml:"aks"             json:"aks"`
	CloudPC        string `yaml:"cloud_pc"        json:"cloud_pc"`
	DevOps         string `yaml:"devops"          json:"devops"`
}

// Environment is everything a rule pack needs to render its fragment.
type Environment struct {
	// RegionCode is the Azure location, e.g. "southeastasia".
	RegionCode string

	Subnets SubnetSpaces

	// ACRName is the private container registry AKS pulls from. Empty means
	// no registry pull rule is emitted.
	ACRName string
}
