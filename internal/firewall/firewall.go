// Package firewall registers and removes the packet-filter allow rules
// for the installed executable. Rules are provisioned through the
// system firewall configuration tool; provisioning is advisory and the
// caller never waits for it to take effect.
package firewall

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

// Direction is the traffic direction a rule applies to.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// RuleName derives the rule identity for an executable: the base file
// name with its extension stripped, suffixed with " Service". Removal
// targets this name only, independent of direction.
func RuleName(programPath string) string {
	name := programPath
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name + " Service"
}

// Manager provisions allow rules via netsh advfirewall.
type Manager struct {
	start func(args []string) error
}

func NewManager() *Manager {
	return &Manager{start: startNetsh}
}

// startNetsh launches the firewall configuration tool and returns
// without waiting for it: rule changes are fire and forget, like the
// rest of this module's external effects. Arguments are passed as
// discrete argv elements so names and paths containing spaces survive
// the tool's command line intact.
func startNetsh(args []string) error {
	cmd := exec.Command("netsh", args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	if err := cmd.Process.Release(); err != nil {
		log.Warnf("failed to release netsh process: %v", err)
	}
	return nil
}

// AllowProgram registers inbound and outbound allow rules for the
// executable. Registration is not deduplicated; adding twice yields
// two rules.
func (m *Manager) AllowProgram(programPath string) error {
	name := RuleName(programPath)

	var result *multierror.Error
	for _, dir := range []Direction{DirectionIn, DirectionOut} {
		args := []string{
			"advfirewall", "firewall", "add", "rule",
			"name=" + name,
			"dir=" + string(dir),
			"action=allow",
			"program=" + programPath,
			"enable=yes",
		}
		if err := m.start(args); err != nil {
			result = multierror.Append(result, fmt.Errorf("add %s rule %q: %w", dir, name, err))
			continue
		}
		log.Infof("firewall rule %q (%s) requested for %s", name, dir, programPath)
	}
	return result.ErrorOrNil()
}

// RemoveProgramRules deletes every rule carrying the executable's
// derived rule name.
func (m *Manager) RemoveProgramRules(programPath string) error {
	name := RuleName(programPath)

	args := []string{"advfirewall", "firewall", "delete", "rule", "name=" + name}
	if err := m.start(args); err != nil {
		return fmt.Errorf("delete rule %q: %w", name, err)
	}
	log.Infof("firewall rule %q removal requested", name)
	return nil
}
