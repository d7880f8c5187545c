// Package workload describes a batch of tasks over named integer cells in
// YAML and runs it through a spawn.Spawner. It backs the tspawn-bench
// command and is handy for reproducing lock contention patterns.
package workload
