// Package process stops running instances of the installed application
// during install and uninstall transactions. Enumeration and
// termination rights are platform capabilities behind the Source and
// Handle interfaces; the termination policy itself is platform neutral.
package process

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// Handle grants query, read-memory and terminate rights on one running
// process. A handle is exclusively owned for the duration of one
// inspect-and-maybe-terminate step and must be closed on every path.
type Handle interface {
	// Pid identifies the process the handle was opened on.
	Pid() uint32

	// CommandLine attempts to read the full invocation string of the
	// process. ok is false when the command line could not be
	// recovered; that is a policy signal, not an error.
	CommandLine() (line string, ok bool)

	// Terminate issues an asynchronous termination request. The
	// process is not guaranteed to be gone when Terminate returns.
	Terminate() error

	Close()
}

// Source enumerates running processes by executable name and reports
// whether per-process command-line introspection is available on this
// system. Introspectability is resolved once per source, never
// re-resolved mid-operation.
type Source interface {
	Introspectable() bool

	// OpenByName opens a handle on every running process whose exe
	// file name matches. Enumeration failure is advisory: the source
	// logs it and returns nothing.
	OpenByName(name string) []Handle
}

// Terminator decides, per process matching the target name, whether to
// request termination.
//
// When the source cannot introspect command lines, every match is
// terminated unconditionally: completing the transaction wins over
// leaving a stale instance holding files open. When it can, a match is
// terminated only if its command line was read and does not contain
// the exclusion token. A match whose command line could not be read is
// spared.
type Terminator struct {
	source Source
}

func NewTerminator(source Source) *Terminator {
	return &Terminator{source: source}
}

// TerminateMatching applies the termination policy to every process
// whose exe name matches processName, sparing any whose command line
// contains exclusionToken. It returns the number of termination
// requests issued.
func (t *Terminator) TerminateMatching(processName, exclusionToken string) int {
	handles := t.source.OpenByName(processName)
	introspectable := t.source.Introspectable()
	if !introspectable && len(handles) > 0 {
		log.Warnf("command line introspection unavailable, terminating all %d processes named %s", len(handles), processName)
	}

	terminated := 0
	for _, handle := range handles {
		if t.terminateOne(handle, introspectable, exclusionToken) {
			terminated++
		}
		handle.Close()
	}
	return terminated
}

func (t *Terminator) terminateOne(handle Handle, introspectable bool, exclusionToken string) bool {
	pid := handle.Pid()

	if introspectable {
		line, ok := handle.CommandLine()
		if !ok {
			log.Infof("skip pid %d: command line unknown", pid)
			return false
		}
		if strings.Contains(line, exclusionToken) {
			log.Infof("skip pid %d: command line contains %q", pid, exclusionToken)
			return false
		}
		log.Infof("terminate pid %d: %s", pid, line)
	} else {
		log.Infof("terminate pid %d without inspection", pid)
	}

	if err := handle.Terminate(); err != nil {
		log.Warnf("failed to terminate pid %d: %v", pid, err)
		return false
	}
	return true
}
