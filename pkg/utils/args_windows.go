//go:build windows

package utils

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// CommandLineArgs re-parses the raw process command line with
// CommandLineToArgv, so installer arguments such as
// /SQLSVCACCOUNT="NT AUTHORITY\NETWORK SERVICE" keep their quoting.
// The program name is dropped. It returns nil when the command line is unavailable.
func CommandLineArgs() []string {
	cmdLinePtr := windows.GetCommandLine()
	if cmdLinePtr == nil {
		return nil
	}
	var argc int32
	argvPtr, err := windows.CommandLineToArgv(cmdLinePtr, &argc)
	if err != nil || argvPtr == nil || argc < 1 {
		return nil
	}
	defer windows.LocalFree(windows.Handle(uintptr(unsafe.Pointer(argvPtr))))

	argv := unsafe.Slice((**uint16)(unsafe.Pointer(argvPtr)), argc)
	args := make([]string, 0, argc-1)
	for _, p := range argv[1:] {
		if p != nil {
			args = append(args, windows.UTF16PtrToString(p))
		}
	}
	return args
}
