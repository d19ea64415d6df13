package task

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingRunner struct {
	runs int64
	err  error
}

func (r *countingRunner) Run() error {
	atomic.AddInt64(&r.runs, 1)
	return r.err
}

func (r *countingRunner) count() int64 {
	return atomic.LoadInt64(&r.runs)
}

func TestStartRunsImmediately(t *testing.T) {
	runner := &countingRunner{}
	task := NewTickerTask("counter", 0, runner)

	task.Start()

	assert.Equal(t, int64(1), runner.count(), "a zero interval should still run once")
}

func TestSkipInitialRun(t *testing.T) {
	runner := &countingRunner{}
	task := NewTickerTaskWithOptions(Options{
		Name:           "counter",
		Interval:       0,
		Runner:         runner,
		SkipInitialRun: true,
	})

	task.Start()

	assert.Equal(t, int64(0), runner.count())
}

func TestRecurringRunsUntilStopped(t *testing.T) {
	runner := &countingRunner{}
	task := NewTickerTask("counter", time.Millisecond, runner)

	task.Start()
	time.Sleep(20 * time.Millisecond)
	task.Stop()
	<-task.Done()

	// let any in-flight run drain before sampling
	time.Sleep(5 * time.Millisecond)
	stopped := runner.count()
	assert.Greater(t, stopped, int64(1), "ticker should have fired at least once")

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, stopped, runner.count(), "no runs after Stop")
}

func TestRunnerErrorDoesNotStopSchedule(t *testing.T) {
	runner := &countingRunner{err: errors.New("transient")}
	task := NewTickerTask("failing", time.Millisecond, runner)

	task.Start()
	time.Sleep(20 * time.Millisecond)
	task.Stop()

	assert.Greater(t, runner.count(), int64(1))
}

func TestFuncRunner(t *testing.T) {
	var runs int64
	task := NewTickerTaskFromFunc("fn", 0, func() error {
		atomic.AddInt64(&runs, 1)
		return nil
	})

	task.Start()

	assert.Equal(t, int64(1), atomic.LoadInt64(&runs))
}
