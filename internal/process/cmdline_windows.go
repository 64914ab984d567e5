package process

import (
	"strings"
	"unicode/utf16"
	"unsafe"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// inspector recovers the full invocation string of a remote process.
// It is an optional capability: NtQueryInformationProcess is not part
// of the stable API surface and may be unresolvable, in which case the
// unavailable implementation is injected and the termination policy
// falls back to unconditional mode.
type inspector interface {
	available() bool

	// commandLine walks the remote process parameter block. ok is
	// false on any failed step; the platform never guarantees this
	// read succeeds.
	commandLine(process windows.Handle) (line string, ok bool)
}

func resolveInspector() inspector {
	proc := windows.NewLazySystemDLL("ntdll.dll").NewProc("NtQueryInformationProcess")
	if err := proc.Find(); err != nil {
		log.Warnf("NtQueryInformationProcess is not resolvable: %v", err)
		return unavailableInspector{}
	}
	return &ntdllInspector{queryInformationProcess: proc}
}

type unavailableInspector struct{}

func (unavailableInspector) available() bool { return false }

func (unavailableInspector) commandLine(windows.Handle) (string, bool) { return "", false }

type ntdllInspector struct {
	queryInformationProcess *windows.LazyProc
}

func (i *ntdllInspector) available() bool { return true }

func (i *ntdllInspector) commandLine(process windows.Handle) (string, bool) {
	var info windows.PROCESS_BASIC_INFORMATION
	var retLen uint32
	status, _, _ := i.queryInformationProcess.Call(
		uintptr(process),
		uintptr(windows.ProcessBasicInformation),
		uintptr(unsafe.Pointer(&info)),
		unsafe.Sizeof(info),
		uintptr(unsafe.Pointer(&retLen)),
	)
	if status != 0 || info.PebBaseAddress == nil {
		return "", false
	}

	var peb windows.PEB
	if !readMemory(process, uintptr(unsafe.Pointer(info.PebBaseAddress)), unsafe.Pointer(&peb), unsafe.Sizeof(peb)) {
		return "", false
	}
	if peb.ProcessParameters == nil {
		return "", false
	}

	var params windows.RTL_USER_PROCESS_PARAMETERS
	if !readMemory(process, uintptr(unsafe.Pointer(peb.ProcessParameters)), unsafe.Pointer(&params), unsafe.Sizeof(params)) {
		return "", false
	}

	buffer := commandLineBuffer(params.CommandLine.Length)
	if buffer == nil || params.CommandLine.Buffer == nil {
		return "", false
	}
	if !readMemory(process, uintptr(unsafe.Pointer(params.CommandLine.Buffer)), unsafe.Pointer(&buffer[0]), uintptr(params.CommandLine.Length)) {
		return "", false
	}
	return strings.TrimRight(string(utf16.Decode(buffer)), "\x00"), true
}

// commandLineBuffer allocates the destination for a remote command
// line read of the given byte length. The length comes out of the
// remote process's own memory and is untrusted: a zero or misaligned
// value yields no buffer, so the read resolves to Unknown instead of
// writing past the allocation.
func commandLineBuffer(length uint16) []uint16 {
	if length == 0 || length%2 != 0 {
		return nil
	}
	return make([]uint16, length/2)
}

func readMemory(process windows.Handle, address uintptr, dst unsafe.Pointer, size uintptr) bool {
	var read uintptr
	if err := windows.ReadProcessMemory(process, address, (*byte)(dst), size, &read); err != nil {
		return false
	}
	return read == size
}
