package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Peers maps an operator-chosen name to a peer address.
//
//	peers:
//	  clinic-b: http://10.0.0.12:3000
//	  clinic-c: 10.0.0.13:3000
type Peers map[string]string

type peersFile struct {
	Peers Peers `yaml:"peers"`
}

func LoadPeers(path string) (Peers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read peers file: %w", err)
	}

	var f peersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse peers file %s: %w", path, err)
	}
	for name, addr := range f.Peers {
		if addr == "" {
			return nil, fmt.Errorf("peers file %s: peer %q has no address", path, name)
		}
	}
	return f.Peers, nil
}

// Resolve returns the address configured for name, or name itself when it
// is not a configured peer (a raw address supplied by the operator).
func (p Peers) Resolve(name string) string {
	if addr, ok := p[name]; ok {
		return addr
	}
	return name
}
