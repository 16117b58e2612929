package parallelism

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// DetectMaxCores returns the number of CPUs in this process's affinity mask,
// which is what a container's cpuset allows. It falls back to
// runtime.NumCPU when the mask cannot be read.
func DetectMaxCores() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return runtime.NumCPU()
	}
	if n := set.Count(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}
