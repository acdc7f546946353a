// pkg/osprobe/osprobe.go - best-effort detection of the runner's Windows release year.
//
// Detection is advisory: any failure is logged and reported as "unknown" so
// the caller can carry on without bound checks.

package osprobe

import (
	"context"
	"regexp"
	"strconv"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/windowsadmins/setup-sqlserver/pkg/command"
	"github.com/windowsadmins/setup-sqlserver/pkg/logging"
)

var (
	osNamePattern = regexp.MustCompile(`(?i)os name:\s+(.*)`)
	numberPattern = regexp.MustCompile(`\d+`)
)

// Prober finds the OS year from systeminfo, falling back to WMI.
type Prober struct {
	runner   command.Runner
	caption  func() (string, error)
	hostInfo func(ctx context.Context) (*host.InfoStat, error)
	kernel   func() string
}

// New returns a Prober that runs systeminfo through runner.
func New(runner command.Runner) *Prober {
	return &Prober{
		runner:   runner,
		caption:  osCaption,
		hostInfo: host.InfoWithContext,
		kernel:   kernelBuild,
	}
}

// Probe returns the year of the running Windows release, e.g. 2022, and
// whether one could be determined. It never fails.
func (p *Prober) Probe(ctx context.Context) (int, bool) {
	if logging.IsDebug() {
		p.logHostFacts(ctx)
	}

	res, err := p.runner.Run(ctx, "systeminfo", nil, command.Options{Silent: true})
	if err != nil {
		logging.Warn("Unable to determine the runner OS version", "error", err)
		return 0, false
	}

	if logging.IsDebug() {
		_ = logging.Group("systeminfo", func() error {
			logging.Print(res.Stdout)
			return nil
		})
	}

	if year, ok := ParseYear(res.Stdout); ok {
		return year, true
	}
	if osNamePattern.MatchString(res.Stdout) {
		return 0, false
	}

	// no "OS Name" label, e.g. on a localized image
	caption, err := p.caption()
	if err != nil {
		logging.Debug("OS caption lookup failed", "error", err)
		return 0, false
	}
	logging.Debug("Using OS caption", "caption", caption)
	return firstNumber(caption)
}

// ParseYear extracts the first number from the "OS Name:" line of systeminfo output.
func ParseYear(systeminfo string) (int, bool) {
	m := osNamePattern.FindStringSubmatch(systeminfo)
	if m == nil {
		return 0, false
	}
	return firstNumber(m[1])
}

func firstNumber(s string) (int, bool) {
	digits := numberPattern.FindString(s)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (p *Prober) logHostFacts(ctx context.Context) {
	info, err := p.hostInfo(ctx)
	if err != nil {
		logging.Debug("Host information unavailable", "error", err)
	} else {
		logging.Debug("Host information",
			"platform", info.Platform,
			"platformVersion", info.PlatformVersion,
			"kernelVersion", info.KernelVersion,
			"kernelArch", info.KernelArch)
	}
	if build := p.kernel(); build != "" {
		logging.Debug("Kernel version", "build", build)
	}
}
