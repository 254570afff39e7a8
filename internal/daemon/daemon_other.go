//go:build !unix

package daemon

import "errors"

var errUnsupported = errors.New("background mode is only supported on unix systems")

// StartOptions describe how to launch the background process.
type StartOptions struct {
	Executable string
	Args       []string
	LogFile    string
	PidFile    string
}

func Start(StartOptions) (int, error) { return 0, errUnsupported }

func Stop(string) (int, error) { return 0, errUnsupported }

func Status(string) (int, bool, error) { return 0, false, errUnsupported }
