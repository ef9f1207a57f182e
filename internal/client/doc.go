// Package client provides a load generator for exercising a worker pool.
//
// The Client submits synthetic jobs to a worker.Dispatcher from several
// concurrent submitters and waits for every job to complete.
//
// # Basic Usage
//
//	d, _ := worker.Build(4)
//	defer d.Shutdown(ctx)
//
//	config := client.DefaultConfig()
//	config.JobDuration = 50 * time.Millisecond
//	cl := client.New(d, config)
//
//	res, err := cl.RunJobs(ctx, 8)
//	fmt.Printf("Submitted: %d, Failed: %d, Took: %v\n",
//	    res.Submitted, res.Failed, res.Elapsed)
//
// # Configuration
//
// The Config struct allows tuning:
//   - Submitters: concurrent submitting goroutines (0 = 1)
//   - JobDuration: how long each synthetic job sleeps
//
// A chaos.Injector can be attached with SetInjector to wrap jobs with faults.
package client
