package task

import (
	"time"

	"github.com/golang/glog"
)

type Runner interface {
	Run() error
}

// TickerTask drives a Runner on a fixed interval. Run errors are logged
// under the task name and do not stop the schedule.
type TickerTask struct {
	name           string
	interval       time.Duration
	runner         Runner
	skipInitialRun bool
	done           chan struct{}
}

type Options struct {
	Name           string
	Interval       time.Duration
	Runner         Runner
	SkipInitialRun bool
}

func NewTickerTask(name string, interval time.Duration, runner Runner) *TickerTask {
	return NewTickerTaskWithOptions(Options{
		Name:     name,
		Interval: interval,
		Runner:   runner,
	})
}

func NewTickerTaskWithOptions(opt Options) *TickerTask {
	return &TickerTask{
		name:           opt.Name,
		interval:       opt.Interval,
		runner:         opt.Runner,
		skipInitialRun: opt.SkipInitialRun,
		done:           make(chan struct{}),
	}
}

// Start runs the task immediately and then schedules it to run periodically
// if a positive interval has been specified.
func (t *TickerTask) Start() {
	if !t.skipInitialRun {
		t.runOnce()
	}

	if t.interval > 0 {
		go t.runRecurring()
	}
}

// Stop stops the periodic task but the task runner maintains state.
func (t *TickerTask) Stop() {
	close(t.done)
}

// Done exports the readonly done channel.
func (t *TickerTask) Done() <-chan struct{} {
	return t.done
}

func (t *TickerTask) runOnce() {
	if err := t.runner.Run(); err != nil {
		glog.Errorf("task %s failed: %v", t.name, err)
	}
}

func (t *TickerTask) runRecurring() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.runOnce()
		case <-t.done:
			return
		}
	}
}
