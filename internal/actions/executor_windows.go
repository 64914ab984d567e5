package actions

import (
	"github.com/farviewio/installer-actions/internal/firewall"
	"github.com/farviewio/installer-actions/internal/installdir"
	"github.com/farviewio/installer-actions/internal/process"
)

// New wires an Executor against the running system. The command line
// introspection capability is resolved here, once per invocation.
func New() *Executor {
	return &Executor{
		terminator: process.NewTerminator(process.NewSystemSource()),
		firewall:   firewall.NewManager(),
		removeDir:  installdir.Remove,
	}
}
