// Package actions holds the custom actions the installer host invokes
// at defined transaction steps. Every action is single shot: parse the
// required input (failure here is fatal), perform the operation
// (sub-failures are advisory, visible only in the log), report one of
// two coarse outcomes back to the host. No state survives between
// invocations.
package actions

import (
	log "github.com/sirupsen/logrus"

	"github.com/farviewio/installer-actions/internal/msi"
)

// Status is the coarse outcome reported back to the installer host.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
)

const (
	customActionDataProperty   = "CustomActionData"
	terminateProcessesProperty = "TerminateProcesses"

	// installFlag marks the installer's own invocation. A process
	// whose command line carries it is never terminated.
	installFlag = "--install"

	// maxProcessNameUnits bounds the process name property the way
	// the host hands it out: through a 256 wide-character buffer.
	maxProcessNameUnits = 255

	// addRulesFlag is the leading byte of the AddFirewallRules input
	// selecting rule registration; any other byte selects removal.
	addRulesFlag = '1'
)

type processTerminator interface {
	TerminateMatching(processName, exclusionToken string) int
}

type firewallManager interface {
	AllowProgram(programPath string) error
	RemoveProgramRules(programPath string) error
}

// Executor binds the actions to their platform capabilities. Build one
// per invocation with New; nothing in it is shared or retained.
type Executor struct {
	terminator processTerminator
	firewall   firewallManager
	removeDir  func(path string) error
}

// Hello verifies the action host wiring end to end.
func (e *Executor) Hello(msi.Session) Status {
	log.Infof("================= custom action hello")
	return StatusSuccess
}

// RemoveInstallFolder deletes the install directory tree named by the
// first CustomActionData record. Deletion failure is advisory.
func (e *Executor) RemoveInstallFolder(session msi.Session) Status {
	data, err := session.Property(customActionDataProperty)
	if err != nil {
		log.Errorf("failed to get CustomActionData: %v", err)
		return StatusFailure
	}

	installFolder, err := msi.NewDataReader(data).ReadString()
	if err != nil || installFolder == "" {
		log.Errorf("failed to read install folder from custom action data: %v", err)
		return StatusFailure
	}

	// Advisory: the remover logs the outcome either way.
	_ = e.removeDir(installFolder)
	return StatusSuccess
}

// TerminateProcesses stops every running instance of the named
// executable except the installer's own invocation, identified by the
// installFlag exclusion token.
func (e *Executor) TerminateProcesses(session msi.Session) Status {
	processName, err := msi.BoundedProperty(session, terminateProcessesProperty, maxProcessNameUnits)
	if err != nil {
		log.Errorf("failed to get %s property: %v", terminateProcessesProperty, err)
		return StatusFailure
	}

	log.Infof("try terminate processes: %s", processName)
	terminated := e.terminator.TerminateMatching(processName, installFlag)
	log.Infof("issued %d termination requests for %s", terminated, processName)
	return StatusSuccess
}

// AddFirewallRules registers or removes the firewall allow rules for
// the installed executable. The first CustomActionData record carries
// the add/remove flag in its leading byte, the executable path in the
// remainder. Rule changes are advisory.
func (e *Executor) AddFirewallRules(session msi.Session) Status {
	data, err := session.Property(customActionDataProperty)
	if err != nil {
		log.Errorf("failed to get CustomActionData: %v", err)
		return StatusFailure
	}

	token, err := msi.NewDataReader(data).ReadString()
	if err != nil || len(token) < 2 {
		log.Errorf("malformed firewall custom action data %q: %v", token, err)
		return StatusFailure
	}

	programPath := token[1:]
	log.Infof("try add firewall exceptions for file: %s", programPath)

	if token[0] == addRulesFlag {
		if err := e.firewall.AllowProgram(programPath); err != nil {
			log.Warnf("firewall rule registration failed: %v", err)
		}
	} else {
		if err := e.firewall.RemoveProgramRules(programPath); err != nil {
			log.Warnf("firewall rule removal failed: %v", err)
		}
	}
	return StatusSuccess
}
