// Package installdir removes the application's install folder tree at
// the end of an uninstall transaction.
package installdir

import (
	"errors"
	"os"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// Remove recursively deletes the folder and everything under it, with
// no interactive prompt. A folder that does not exist counts as a
// failure: the transaction expected something to delete. Failures are
// logged with the numeric OS code where one is available; the caller
// decides whether they matter.
func Remove(path string) error {
	if _, err := os.Stat(path); err != nil {
		logFailure(path, err)
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		logFailure(path, err)
		return err
	}
	log.Infof("the directory %q has been deleted", path)
	return nil
}

func logFailure(path string, err error) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		log.Errorf("the directory %q has not been deleted, error code: 0x%02X", path, uintptr(errno))
		return
	}
	log.Errorf("the directory %q has not been deleted: %v", path, err)
}
