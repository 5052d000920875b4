// Package runner contains example consumers of the queue's public contract:
// a worker loop that claims, waits, runs, and completes jobs, and a janitor
// that prunes completed and expired jobs on cron schedules.
//
// The worker follows the claim discipline the queue expects from callers:
// claim atomically with LockNextJobDelay, wait the returned delay outside
// any transaction, re-fetch the job by ID to confirm it still exists and is
// uncompleted, run the payload, mark it complete, and always unlock on the
// way out. Each worker opens its own database handle; the queue core is not
// safe for shared concurrent use.
package runner
