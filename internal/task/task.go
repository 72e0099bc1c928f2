// Package task runs named periodic jobs. Jobs register before Run and
// can have their interval changed (or be removed) at runtime.
package task

import (
	"sync"
	"time"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/log"
)

type job struct {
	name       string
	interval   time.Duration
	fn         func()
	runOnStart bool
	stop       chan struct{}
	reschedule chan time.Duration
}

var (
	mu   sync.Mutex
	jobs = make(map[string]*job)
)

// Register adds a periodic job. Interval <= 0 means the job is
// disabled and nothing is registered. runOnStart fires the job once
// immediately when the runner starts.
func Register(name string, interval time.Duration, runOnStart bool, fn func()) {
	if interval <= 0 {
		log.Debugf("task %s disabled (interval %v)", name, interval)
		return
	}

	mu.Lock()
	defer mu.Unlock()
	if _, exists := jobs[name]; exists {
		log.Warnf("task %s already registered", name)
		return
	}
	jobs[name] = &job{
		name:       name,
		interval:   interval,
		fn:         fn,
		runOnStart: runOnStart,
		stop:       make(chan struct{}),
		reschedule: make(chan time.Duration, 1),
	}
	log.Debugf("task %s registered, interval %v", name, interval)
}

// Update changes a job's interval at runtime. Interval <= 0 removes
// the job.
func Update(name string, interval time.Duration) {
	mu.Lock()
	j, ok := jobs[name]
	if !ok {
		mu.Unlock()
		log.Warnf("task %s not found", name)
		return
	}
	if interval <= 0 {
		delete(jobs, name)
		mu.Unlock()
		close(j.stop)
		log.Infof("task %s removed", name)
		return
	}
	mu.Unlock()

	select {
	case j.reschedule <- interval:
		log.Infof("task %s interval set to %v", name, interval)
	default:
		log.Warnf("task %s reschedule pending, skipped", name)
	}
}

// Run starts every registered job and blocks forever.
func Run() {
	mu.Lock()
	for _, j := range jobs {
		go j.loop()
	}
	mu.Unlock()

	select {}
}

func (j *job) loop() {
	if j.runOnStart {
		go j.fn()
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			go j.fn()
		case d := <-j.reschedule:
			j.interval = d
			ticker.Reset(d)
		case <-j.stop:
			return
		}
	}
}
