// Package parallelism checks the worker counts a step hands to the model
// trainer against the cores available to this process.
package parallelism

import (
	"fmt"
	"log"
)

// All asks for every available core.
const All = -1

// Error reports a core budget that does not fit the machine.
type Error struct {
	NJobsCV    int
	NJobsStudy int
	MaxCores   int
}

func (e *Error) Error() string {
	return fmt.Sprintf("parallelism: requested %d cores for cross-validation and %d parallel trials, total %d, which exceeds available %d",
		e.NJobsCV, e.NJobsStudy, e.NJobsCV*e.NJobsStudy, e.MaxCores)
}

// ValidateJobs fails when nJobsCV * nJobsStudy exceeds maxCores. All (-1)
// resolves to maxCores; maxCores <= 0 uses DetectMaxCores.
func ValidateJobs(nJobsCV, nJobsStudy, maxCores int) error {
	if maxCores <= 0 {
		maxCores = DetectMaxCores()
	}
	if nJobsCV == 0 || nJobsCV < All {
		return fmt.Errorf("parallelism: n_jobs_cv must be positive or -1, got %d", nJobsCV)
	}
	if nJobsStudy == 0 || nJobsStudy < All {
		return fmt.Errorf("parallelism: n_jobs_study must be positive or -1, got %d", nJobsStudy)
	}

	cv := resolve(nJobsCV, maxCores)
	study := resolve(nJobsStudy, maxCores)
	if cv*study > maxCores {
		return &Error{NJobsCV: cv, NJobsStudy: study, MaxCores: maxCores}
	}
	log.Printf("parallelism: ok n_jobs_cv=%d n_jobs_study=%d cores=%d", cv, study, maxCores)
	return nil
}

func resolve(n, maxCores int) int {
	if n == All {
		return maxCores
	}
	return n
}
