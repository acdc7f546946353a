package readiness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowsadmins/setup-sqlserver/pkg/command"
	"github.com/windowsadmins/setup-sqlserver/pkg/command/commandtest"
)

type sleeps struct {
	delays []time.Duration
}

func (s *sleeps) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func exitCodes(codes ...int) commandtest.Handler {
	i := 0
	return func(commandtest.Call) (command.Result, error) {
		code := codes[len(codes)-1]
		if i < len(codes) {
			code = codes[i]
		}
		i++
		return command.Result{ExitCode: code}, nil
	}
}

func TestWaitUntilReadyExhausted(t *testing.T) {
	runner := &commandtest.Runner{Handler: exitCodes(1)}
	s := &sleeps{}

	res := New(runner, WithSleep(s.sleep)).WaitUntilReady(context.Background(), "P@ssw0rd")

	assert.Len(t, runner.Calls(), 6)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second,
	}, s.delays)
	assert.Equal(t, 6, res.Attempts)
	assert.Equal(t, 1, res.ExitCode)
	assert.False(t, res.Ready())
	require.False(t, res.Advisory.OK())
	assert.Equal(t, "Database not ready after 5 attempts, moving on", res.Advisory.Message)
}

func TestWaitUntilReadyThirdAttempt(t *testing.T) {
	runner := &commandtest.Runner{Handler: exitCodes(1, 1, 0)}
	s := &sleeps{}

	res := New(runner, WithSleep(s.sleep)).WaitUntilReady(context.Background(), "P@ssw0rd")

	assert.Len(t, runner.Calls(), 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, s.delays)
	assert.Equal(t, 3, res.Attempts)
	assert.True(t, res.Ready())
	assert.True(t, res.Advisory.OK())
}

func TestWaitUntilReadyImmediately(t *testing.T) {
	runner := &commandtest.Runner{Handler: exitCodes(0)}
	s := &sleeps{}

	res := New(runner, WithSleep(s.sleep)).WaitUntilReady(context.Background(), "P@ssw0rd")

	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, s.delays)
	assert.True(t, res.Advisory.OK())
}

func TestProbeInvocation(t *testing.T) {
	runner := &commandtest.Runner{Handler: exitCodes(0)}
	New(runner, WithSleep((&sleeps{}).sleep)).WaitUntilReady(context.Background(), "S3cret!")

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "sqlcmd", calls[0].Name)
	assert.Equal(t, []string{"-S", "(local)", "-U", "sa", "-P", "S3cret!", "-Q", "SELECT @@VERSION"}, calls[0].Args)
	assert.True(t, calls[0].Opts.IgnoreReturnCode)
}

func TestProbeStartFailureCountsAsNotReady(t *testing.T) {
	calls := 0
	runner := &commandtest.Runner{Handler: func(commandtest.Call) (command.Result, error) {
		calls++
		if calls == 1 {
			return command.Result{}, errors.New(`exec: "sqlcmd": executable file not found in %PATH%`)
		}
		return command.Result{}, nil
	}}

	res := New(runner, WithSleep((&sleeps{}).sleep)).WaitUntilReady(context.Background(), "pw")
	assert.Equal(t, 2, res.Attempts)
	assert.True(t, res.Ready())
}

func TestWithAttempts(t *testing.T) {
	runner := &commandtest.Runner{Handler: exitCodes(1)}
	s := &sleeps{}
	res := New(runner, WithSleep(s.sleep), WithAttempts(2)).WaitUntilReady(context.Background(), "pw")
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, []time.Duration{time.Second}, s.delays)
}
