// Package config loads an InterfaceConfig from a YAML file the way
// deviceid.go loads tocalls.yaml: read the whole file, unmarshal with
// gopkg.in/yaml.v3, and leave command-line flags (see cmd/pppd) free
// to override whatever the file set.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// InterfaceConfig holds everything needed to bring one PPP interface
// up: which serial device to open and at what speed, the initial
// ACCM, PAP credentials, and the addresses to offer the peer.
type InterfaceConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	AccmRX uint32 `yaml:"accm_rx"`
	AccmTX uint32 `yaml:"accm_tx"`

	Username string `yaml:"username"`
	Password string `yaml:"password"`

	LocalAddress string `yaml:"local_address"`
	LocalIID     uint64 `yaml:"local_iid"`

	MRU int `yaml:"mru"`
}

// Default returns the InterfaceConfig a fresh pppd starts from before
// any config file or flag is applied.
func Default() InterfaceConfig {
	return InterfaceConfig{
		Device:       "/dev/ttyUSB0",
		Baud:         115200,
		AccmRX:       0xffffffff,
		AccmTX:       0xffffffff,
		LocalAddress: "10.0.0.1",
		LocalIID:     1,
		MRU:          1500,
	}
}

// LoadFile reads path and unmarshals it over Default(), so a config
// file only needs to mention the fields it wants to change.
func LoadFile(path string) (InterfaceConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg, nil
}

// LocalIP parses LocalAddress, returning an error if it isn't a valid
// IPv4 dotted-quad.
func (c InterfaceConfig) LocalIP() (net.IP, error) {
	ip := net.ParseIP(c.LocalAddress)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("config: %q is not a valid IPv4 address", c.LocalAddress)
	}
	return ip.To4(), nil
}
