// Package worker provides a fixed-size goroutine pool for concurrent job
// execution.
//
// A Dispatcher owns a single unbounded FIFO work queue and a fixed set of
// workers spawned at construction. Each submitted Job is delivered to exactly
// one worker, exactly once. Workers hold the queue lock only while taking the
// next job, never while running it, so up to Size() jobs run in parallel.
//
// # Basic Usage
//
//	d, err := worker.Build(4) // 4 workers, spawned immediately
//	if err != nil {
//	    return err // errors.Is(err, worker.ErrInvalidSize)
//	}
//	defer d.Shutdown(context.Background())
//
//	for i := 0; i < 100; i++ {
//	    if err := d.Execute(func() {
//	        // do work
//	    }); err != nil {
//	        return err
//	    }
//	}
//
// # Completion
//
// Execute is fire-and-forget. Submit returns a Handle that is completed once
// the job has run; Handle.Err reports a recovered panic as a *PanicError.
//
//	h, _ := d.Submit(job)
//	if err := h.Wait(ctx); err != nil {
//	    // the job panicked, or ctx ended first
//	}
//
// # Faults
//
// A panicking job is recovered at the worker loop boundary, logged, and
// reported to every Observer. The worker keeps serving, so pool capacity is
// preserved.
//
// # Graceful Shutdown
//
// Shutdown closes the queue to new submissions, lets the workers drain the
// jobs already queued, and waits for every worker to exit. Execute and Submit
// return ErrPoolClosed once Shutdown has begun.
package worker
