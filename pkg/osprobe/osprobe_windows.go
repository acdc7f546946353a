//go:build windows

package osprobe

import (
	"errors"
	"fmt"

	"github.com/yusufpapurcu/wmi"
	"golang.org/x/sys/windows"
)

// Win32_OperatingSystem is the WMI class holding the product caption.
type Win32_OperatingSystem struct {
	Caption string
}

func osCaption() (string, error) {
	var systems []Win32_OperatingSystem
	if err := wmi.Query("SELECT Caption FROM Win32_OperatingSystem", &systems); err != nil {
		return "", fmt.Errorf("failed to query Win32_OperatingSystem: %w", err)
	}
	if len(systems) == 0 || systems[0].Caption == "" {
		return "", errors.New("no operating system caption available")
	}
	return systems[0].Caption, nil
}

func kernelBuild() string {
	v := windows.RtlGetVersion()
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d", v.MajorVersion, v.MinorVersion, v.BuildNumber)
}
