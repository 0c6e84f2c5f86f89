package walk

import "time"

// GapThreshold is the silence between two samples that counts as a gap in
// the recorded path.
const GapThreshold = 5 * time.Minute

type Statistics struct {
	PointCount      int           `json:"point_count"`
	DistanceM       float64       `json:"distance_m"`
	Duration        time.Duration `json:"duration_ns"`
	AverageSpeedMps float64       `json:"average_speed_mps"`
	MinSpeedMps     float64       `json:"min_speed_mps"`
	MaxSpeedMps     float64       `json:"max_speed_mps"`
	AverageAccuracy float64       `json:"average_accuracy_m"`
	HasGaps         bool          `json:"has_gaps"`
}

// Statistics summarises the recorded path. While the walk is in progress the
// duration runs up to now.
func (s *Session) Statistics() Statistics {
	s.locMu.RLock()
	defer s.locMu.RUnlock()

	stats := Statistics{
		PointCount: len(s.locations),
		DistanceM:  s.distance,
		Duration:   s.elapsed(),
	}
	if stats.Duration > 0 {
		stats.AverageSpeedMps = s.distance / stats.Duration.Seconds()
	}
	if len(s.locations) == 0 {
		return stats
	}

	minSpeed := -1.0
	totalAccuracy := s.locations[0].Accuracy
	for i := 1; i < len(s.locations); i++ {
		prev, cur := s.locations[i-1], s.locations[i]
		totalAccuracy += cur.Accuracy

		gap := cur.CapturedAt.Sub(prev.CapturedAt)
		if gap > GapThreshold {
			stats.HasGaps = true
		}
		if gap <= 0 {
			continue
		}
		speed := s.opts.Distance(prev.Point(), cur.Point()) / gap.Seconds()
		if minSpeed < 0 || speed < minSpeed {
			minSpeed = speed
		}
		if speed > stats.MaxSpeedMps {
			stats.MaxSpeedMps = speed
		}
	}
	if minSpeed > 0 {
		stats.MinSpeedMps = minSpeed
	}
	stats.AverageAccuracy = totalAccuracy / float64(len(s.locations))
	return stats
}

func (s *Session) elapsed() time.Duration {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	switch {
	case s.actualStart.IsZero():
		return 0
	case s.status == StatusInProgress:
		if d := s.opts.Now().Sub(s.actualStart); d > 0 {
			return d
		}
		return 0
	case !s.endTime.IsZero():
		return s.duration
	}
	return 0
}
