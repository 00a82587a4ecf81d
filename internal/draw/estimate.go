package draw

import "time"

// Limits are the soft and hard execution bounds handed to the job queue for
// one draw run. They only size the external timeout; in-process logic never
// reads them.
type Limits struct {
	Soft time.Duration
	Hard time.Duration
}

// EstimatorConfig holds the statically configured cost model.
type EstimatorConfig struct {
	// SecondsPerParticipant is the empirical wall-clock cost of scoring one
	// participant in one attempt.
	SecondsPerParticipant float64
	// SoftFloor and HardFloor are the configured default limits; the hard
	// limit always keeps the same buffer over the soft limit as the floors
	// keep over each other.
	SoftFloor time.Duration
	HardFloor time.Duration
}

// EstimateLimits sizes the job time limits proportionally to participant
// count and attempt budget, clamping to the configured floors. Zero
// participants simply clamp to the floor.
func EstimateLimits(participantCount, maxAttempts int, cfg EstimatorConfig) Limits {
	estimated := time.Duration(float64(participantCount) * cfg.SecondsPerParticipant * float64(maxAttempts) * float64(time.Second))

	soft := estimated
	if soft < cfg.SoftFloor {
		soft = cfg.SoftFloor
	}

	return Limits{
		Soft: soft,
		Hard: soft + (cfg.HardFloor - cfg.SoftFloor),
	}
}
