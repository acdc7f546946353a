//go:build !windows

package osprobe

import (
	"errors"
	"runtime"
)

func osCaption() (string, error) {
	return "", errors.New("operating system caption is only available on windows, not " + runtime.GOOS)
}

func kernelBuild() string { return "" }
