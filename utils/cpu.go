package utils

import "runtime"

// ReturnCPUCount derives the worker-pool size: the configured value when
// positive, otherwise one less than the machine's logical CPUs (minimum 1).
func ReturnCPUCount(configured int) int {
	if configured > 0 {
		return configured
	}
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}
