package identity

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// StaticDirectory serves role membership from an in-memory table. Used in
// development and tests when no identity service is configured.
type StaticDirectory struct {
	roles map[string][]string
}

func NewStaticDirectory(roles map[string][]string) *StaticDirectory {
	cp := make(map[string][]string, len(roles))
	for role, ids := range roles {
		cp[role] = append([]string(nil), ids...)
	}
	return &StaticDirectory{roles: cp}
}

// LoadStaticDirectory reads a role table from a YAML file:
//
//	manager: [u-100, u-101]
//	director: [u-200]
func LoadStaticDirectory(path string) (*StaticDirectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roles file: %w", err)
	}
	var roles map[string][]string
	if err := yaml.Unmarshal(data, &roles); err != nil {
		return nil, fmt.Errorf("parse roles file: %w", err)
	}
	return NewStaticDirectory(roles), nil
}

func (d *StaticDirectory) UsersWithRole(_ context.Context, role string) ([]string, error) {
	return append([]string(nil), d.roles[role]...), nil
}
