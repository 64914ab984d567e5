package actions

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farviewio/installer-actions/internal/msi"
)

type fakeTerminator struct {
	name   string
	token  string
	calls  int
	result int
}

func (f *fakeTerminator) TerminateMatching(processName, exclusionToken string) int {
	f.calls++
	f.name = processName
	f.token = exclusionToken
	return f.result
}

type fakeFirewall struct {
	allowed []string
	removed []string
	err     error
}

func (f *fakeFirewall) AllowProgram(programPath string) error {
	f.allowed = append(f.allowed, programPath)
	return f.err
}

func (f *fakeFirewall) RemoveProgramRules(programPath string) error {
	f.removed = append(f.removed, programPath)
	return f.err
}

// brokenSession simulates a host whose property store cannot be read.
type brokenSession struct{}

func (brokenSession) Property(string) (string, error) {
	return "", errors.New("session handle invalid")
}

func newTestExecutor() (*Executor, *fakeTerminator, *fakeFirewall, *[]string) {
	terminator := &fakeTerminator{}
	fw := &fakeFirewall{}
	var removed []string
	e := &Executor{
		terminator: terminator,
		firewall:   fw,
		removeDir: func(path string) error {
			removed = append(removed, path)
			return nil
		},
	}
	return e, terminator, fw, &removed
}

func TestRemoveInstallFolder(t *testing.T) {
	e, _, _, removed := newTestExecutor()
	session := msi.PropertySession{
		"CustomActionData": `C:\Program Files\Farview`,
	}

	assert.Equal(t, StatusSuccess, e.RemoveInstallFolder(session))
	assert.Equal(t, []string{`C:\Program Files\Farview`}, *removed)
}

func TestRemoveInstallFolder_DeletionFailureIsAdvisory(t *testing.T) {
	e, _, _, _ := newTestExecutor()
	e.removeDir = func(string) error { return errors.New("sharing violation") }
	session := msi.PropertySession{"CustomActionData": `C:\Program Files\Farview`}

	assert.Equal(t, StatusSuccess, e.RemoveInstallFolder(session))
}

func TestRemoveInstallFolder_FatalSetup(t *testing.T) {
	e, _, _, removed := newTestExecutor()

	// Empty CustomActionData where a path is expected.
	assert.Equal(t, StatusFailure, e.RemoveInstallFolder(msi.PropertySession{}))
	// Unreadable property store.
	assert.Equal(t, StatusFailure, e.RemoveInstallFolder(brokenSession{}))

	assert.Empty(t, *removed, "no deletion may be attempted on fatal setup errors")
}

func TestTerminateProcesses(t *testing.T) {
	e, terminator, _, _ := newTestExecutor()
	terminator.result = 3
	session := msi.PropertySession{"TerminateProcesses": "farview.exe"}

	assert.Equal(t, StatusSuccess, e.TerminateProcesses(session))
	assert.Equal(t, "farview.exe", terminator.name)
	assert.Equal(t, "--install", terminator.token)
}

func TestTerminateProcesses_BoundsPropertyRead(t *testing.T) {
	e, terminator, _, _ := newTestExecutor()
	session := msi.PropertySession{"TerminateProcesses": strings.Repeat("x", 400)}

	assert.Equal(t, StatusSuccess, e.TerminateProcesses(session))
	assert.Len(t, terminator.name, 255)
}

func TestTerminateProcesses_FatalSetup(t *testing.T) {
	e, terminator, _, _ := newTestExecutor()

	assert.Equal(t, StatusFailure, e.TerminateProcesses(brokenSession{}))
	assert.Zero(t, terminator.calls, "no termination may be attempted on fatal setup errors")
}

func TestAddFirewallRules(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantStatus  Status
		wantAllowed []string
		wantRemoved []string
	}{
		{
			name:        "add flag registers rules",
			data:        `1C:\Apps\Foo.exe`,
			wantStatus:  StatusSuccess,
			wantAllowed: []string{`C:\Apps\Foo.exe`},
		},
		{
			name:        "any other flag removes rules",
			data:        `0C:\Apps\Foo.exe`,
			wantStatus:  StatusSuccess,
			wantRemoved: []string{`C:\Apps\Foo.exe`},
		},
		{
			name:       "empty data is fatal",
			data:       "",
			wantStatus: StatusFailure,
		},
		{
			name:       "flag without path is fatal",
			data:       "1",
			wantStatus: StatusFailure,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, _, fw, _ := newTestExecutor()
			session := msi.PropertySession{"CustomActionData": tc.data}

			assert.Equal(t, tc.wantStatus, e.AddFirewallRules(session))
			assert.Equal(t, tc.wantAllowed, fw.allowed)
			assert.Equal(t, tc.wantRemoved, fw.removed)
		})
	}
}

func TestAddFirewallRules_ProvisioningFailureIsAdvisory(t *testing.T) {
	e, _, fw, _ := newTestExecutor()
	fw.err = errors.New("netsh not found")
	session := msi.PropertySession{"CustomActionData": `1C:\Apps\Foo.exe`}

	assert.Equal(t, StatusSuccess, e.AddFirewallRules(session))
}

func TestHello(t *testing.T) {
	e, _, _, _ := newTestExecutor()
	require.Equal(t, StatusSuccess, e.Hello(msi.PropertySession{}))
}
