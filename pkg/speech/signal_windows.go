//go:build windows

package speech

import (
	"errors"
	"os"
)

var errPauseUnsupported = errors.New("pausing speech is not supported on windows")

func suspend(p *os.Process) error {
	return errPauseUnsupported
}

func resume(p *os.Process) error {
	return errPauseUnsupported
}
