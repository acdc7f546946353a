//go:build !windows

package main

func enableANSIConsole() {}
