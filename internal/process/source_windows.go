package process

import (
	"strings"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// openRights covers the one inspect-and-maybe-terminate step a handle
// lives for: query + read-memory for the command line, terminate for
// the policy outcome.
const openRights = windows.PROCESS_TERMINATE | windows.PROCESS_QUERY_INFORMATION | windows.PROCESS_VM_READ

type windowsSource struct {
	inspector inspector
}

// NewSystemSource enumerates the running system processes. The command
// line introspection capability is resolved once, here, and never
// re-resolved mid-operation.
func NewSystemSource() Source {
	return &windowsSource{inspector: resolveInspector()}
}

func (s *windowsSource) Introspectable() bool {
	return s.inspector.available()
}

func (s *windowsSource) OpenByName(name string) []Handle {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		log.Warnf("failed to snapshot running processes: %v", err)
		return nil
	}
	defer func() {
		if err := windows.CloseHandle(snapshot); err != nil {
			log.Warnf("failed to close process snapshot: %v", err)
		}
	}()

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	if err := windows.Process32First(snapshot, &entry); err != nil {
		log.Warnf("failed to enumerate processes: %v", err)
		return nil
	}

	var handles []Handle
	for {
		// Exe file names compare case insensitively on this platform.
		if strings.EqualFold(windows.UTF16ToString(entry.ExeFile[:]), name) {
			handle, err := windows.OpenProcess(openRights, false, entry.ProcessID)
			if err != nil {
				log.Debugf("cannot open pid %d: %v", entry.ProcessID, err)
			} else {
				handles = append(handles, &windowsHandle{pid: entry.ProcessID, handle: handle, inspector: s.inspector})
			}
		}
		if err := windows.Process32Next(snapshot, &entry); err != nil {
			break
		}
	}
	return handles
}

type windowsHandle struct {
	pid       uint32
	handle    windows.Handle
	inspector inspector
}

func (h *windowsHandle) Pid() uint32 {
	return h.pid
}

func (h *windowsHandle) CommandLine() (string, bool) {
	return h.inspector.commandLine(h.handle)
}

func (h *windowsHandle) Terminate() error {
	return windows.TerminateProcess(h.handle, 0)
}

func (h *windowsHandle) Close() {
	if err := windows.CloseHandle(h.handle); err != nil {
		log.Warnf("failed to close handle for pid %d: %v", h.pid, err)
	}
}
