package model

import "fmt"

// GlobalSettings holds process-wide defaults injectable into any app's
// configuration. A single record exists; it is created lazily with defaults
// and mutated only by admin action.
type GlobalSettings struct {
	PUID  int    `yaml:"puid" json:"puid"`
	PGID  int    `yaml:"pgid" json:"pgid"`
	Umask string `yaml:"umask" json:"umask"`

	Timezone string `yaml:"timezone" json:"timezone"`

	// UserOverride replaces the computed "puid:pgid" user string when set.
	UserOverride string `yaml:"user_override,omitempty" json:"user_override,omitempty"`

	NetworkName    string `yaml:"network_name" json:"network_name"`
	NetworkSubnet  string `yaml:"network_subnet" json:"network_subnet"`
	NetworkGateway string `yaml:"network_gateway" json:"network_gateway"`

	StacksPath string `yaml:"stacks_path" json:"stacks_path"`
	DataPath   string `yaml:"data_path" json:"data_path"`
}

// DefaultGlobalSettings returns the settings used until an admin changes them.
func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{
		PUID:           1000,
		PGID:           1000,
		Umask:          "022",
		Timezone:       "UTC",
		NetworkName:    "stackarr_net",
		NetworkSubnet:  "10.21.12.0/26",
		NetworkGateway: "10.21.12.1",
		StacksPath:     "/stacks",
		DataPath:       "/app/data",
	}
}

// User returns the service user string: the explicit override when defined,
// otherwise "<puid>:<pgid>".
func (g GlobalSettings) User() string {
	if g.UserOverride != "" {
		return g.UserOverride
	}
	return fmt.Sprintf("%d:%d", g.PUID, g.PGID)
}
