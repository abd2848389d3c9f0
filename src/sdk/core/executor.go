package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Executor wraps an Agent with the execution engine: per-task deadlines,
// fault containment, wall-clock timing, active-task tracking, and a
// bounded-parallel batch runner. One Executor owns one live agent instance.
type Executor struct {
	agent  Agent
	caps   Capabilities
	logger *log.Logger

	mu     sync.Mutex
	active map[string]Task
}

// NewExecutor wraps an agent. The agent's capability limits are resolved to
// their defaults once, at construction.
func NewExecutor(agent Agent, logger *log.Logger) *Executor {
	caps := agent.Capabilities().WithDefaults()
	return &Executor{
		agent:  agent,
		caps:   caps,
		logger: logger,
		active: make(map[string]Task),
	}
}

// Capabilities returns the resolved capability descriptor.
func (e *Executor) Capabilities() Capabilities {
	return e.caps
}

// Agent returns the wrapped agent instance.
func (e *Executor) Agent() Agent {
	return e.agent
}

type taskOutcome struct {
	result *Result
	err    error
}

// ExecuteTask runs one task under its deadline. It never returns an error:
// timeouts and faults raised by ProcessTask are converted into failure
// results. The task is tracked as active for the duration and removed on
// every exit path.
func (e *Executor) ExecuteTask(ctx context.Context, task Task) *Result {
	start := time.Now()

	e.mu.Lock()
	e.active[task.ID] = task
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.active, task.ID)
		e.mu.Unlock()
	}()

	e.logf("starting task %s of type %s", task.ID, task.Type)

	timeout := task.Timeout(e.caps)
	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outcome := make(chan taskOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logf("task %s panicked: %v\n%s", task.ID, r, debug.Stack())
				outcome <- taskOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		res, err := e.agent.ProcessTask(taskCtx, task)
		outcome <- taskOutcome{result: res, err: err}
	}()

	select {
	case <-taskCtx.Done():
		elapsed := time.Since(start)
		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			msg := fmt.Sprintf("task %s timed out after %s", task.ID, timeout)
			e.logf("%s", msg)
			return Failure(task.ID, msg, elapsed)
		}
		// Caller cancellation. The underlying work is abandoned, not stopped.
		msg := fmt.Sprintf("task %s canceled: %v", task.ID, taskCtx.Err())
		e.logf("%s", msg)
		return Failure(task.ID, msg, elapsed)

	case out := <-outcome:
		elapsed := time.Since(start)
		if out.err != nil {
			msg := fmt.Sprintf("task %s failed: %v", task.ID, out.err)
			e.logf("%s", msg)
			return Failure(task.ID, msg, elapsed)
		}
		if out.result == nil {
			return Failure(task.ID, fmt.Sprintf("task %s returned no result", task.ID), elapsed)
		}
		out.result.ExecutionTime = elapsed.Seconds()
		e.logf("completed task %s in %.2fs", task.ID, out.result.ExecutionTime)
		return out.result
	}
}

// ExecuteTasksParallel runs the batch concurrently, admitting at most
// MaxParallelTasks executions at once. The returned slice matches the input
// in length and order regardless of completion order; a slot whose execution
// faults outside ExecuteTask is filled with a failure result.
func (e *Executor) ExecuteTasksParallel(ctx context.Context, tasks []Task) []*Result {
	results := make([]*Result, len(tasks))
	sem := semaphore.NewWeighted(int64(e.caps.MaxParallelTasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, t Task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[idx] = Failure(t.ID, fmt.Sprintf("panic: %v", r), 0)
				}
			}()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[idx] = Failure(t.ID, fmt.Sprintf("task %s canceled while queued: %v", t.ID, err), 0)
				return
			}
			defer sem.Release(1)
			results[idx] = e.ExecuteTask(ctx, t)
		}(i, task)
	}
	wg.Wait()

	return results
}

// Status reports the agent name, active task ids, and capability limits.
// The snapshot is point-in-time, not consistent under concurrent mutation.
func (e *Executor) Status() AgentStatus {
	e.mu.Lock()
	ids := make([]string, 0, len(e.active))
	for id := range e.active {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	return AgentStatus{
		Name:          e.caps.Name,
		ActiveTasks:   len(ids),
		ActiveTaskIDs: ids,
		Capabilities:  e.caps,
	}
}

func (e *Executor) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf("agent %s: "+format, append([]any{e.caps.Name}, args...)...)
	}
}
