//go:build !linux

package parallelism

import "runtime"

// DetectMaxCores returns the number of logical CPUs.
func DetectMaxCores() int { return runtime.NumCPU() }
