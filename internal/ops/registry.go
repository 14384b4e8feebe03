/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package ops

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
)

// CommandGroup represents the operational classification of commands
type CommandGroup string

const (
	GroupReport  CommandGroup = "report"  // license page, summary
	GroupData    CommandGroup = "data"    // bundled license data
	GroupSupport CommandGroup = "support" // version info
)

// groupOrder fixes the order groups appear in help output.
var groupOrder = []CommandGroup{GroupReport, GroupData, GroupSupport}

var groupTitles = map[CommandGroup]string{
	GroupReport:  "Report Commands:",
	GroupData:    "License Data Commands:",
	GroupSupport: "Support Commands:",
}

// Title returns the help heading for the group.
func (g CommandGroup) Title() string {
	if t, ok := groupTitles[g]; ok {
		return t
	}
	return string(g) + ":"
}

// CommandRegistration represents a registered command with its classification
type CommandRegistration struct {
	Name        string
	Group       CommandGroup
	Command     *cobra.Command
	Description string
}

// Registry manages command classifications and registrations
type Registry struct {
	mu         sync.RWMutex
	commands   map[string]*CommandRegistration
	groupIndex map[CommandGroup][]*CommandRegistration
}

// NewRegistry returns an empty registry. Each root command owns one so
// tests can build fresh command trees.
func NewRegistry() *Registry {
	return &Registry{
		commands:   make(map[string]*CommandRegistration),
		groupIndex: make(map[CommandGroup][]*CommandRegistration),
	}
}

// Register adds a command to the registry
func (r *Registry) Register(name string, group CommandGroup, cmd *cobra.Command, description string) error {
	if cmd == nil {
		return fmt.Errorf("command %s has no cobra command", name)
	}
	if _, ok := groupTitles[group]; !ok {
		return fmt.Errorf("command %s: unknown group %q", name, group)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return fmt.Errorf("command %s already registered", name)
	}

	registration := &CommandRegistration{
		Name:        name,
		Group:       group,
		Command:     cmd,
		Description: description,
	}
	r.commands[name] = registration
	r.groupIndex[group] = append(r.groupIndex[group], registration)
	return nil
}

// GetCommand returns a registered command by name
func (r *Registry) GetCommand(name string) (*CommandRegistration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetCommandsByGroup returns the commands in a group sorted by name.
func (r *Registry) GetCommandsByGroup(group CommandGroup) []*CommandRegistration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]*CommandRegistration(nil), r.groupIndex[group]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListGroups returns all command groups and their command counts
func (r *Registry) ListGroups() map[CommandGroup]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[CommandGroup]int)
	for group, commands := range r.groupIndex {
		result[group] = len(commands)
	}
	return result
}

// Apply declares a cobra group on root for every populated group and tags
// the registered commands with it, so help lists them under group headings.
func (r *Registry) Apply(root *cobra.Command) {
	for _, g := range groupOrder {
		regs := r.GetCommandsByGroup(g)
		if len(regs) == 0 {
			continue
		}
		if !root.ContainsGroup(string(g)) {
			root.AddGroup(&cobra.Group{ID: string(g), Title: g.Title()})
		}
		for _, reg := range regs {
			if reg.Command != root {
				reg.Command.GroupID = string(g)
			}
		}
	}
}
