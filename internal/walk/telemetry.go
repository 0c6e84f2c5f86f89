package walk

import "math"

// AppendLocation accepts a sample whose capture time is not earlier than the
// last accepted one and returns the new running distance in meters.
// The running distance never decreases: a negative or non-finite segment
// length counts as zero.
func (s *Session) AppendLocation(sample GeoSample) (float64, error) {
	s.locMu.Lock()
	defer s.locMu.Unlock()

	if s.closed() {
		return 0, ErrSessionClosed
	}

	if n := len(s.locations); n > 0 {
		last := s.locations[n-1]
		if sample.CapturedAt.Before(last.CapturedAt) {
			return 0, ErrOutOfOrderSample
		}
		d := s.opts.Distance(last.Point(), sample.Point())
		if d > 0 && !math.IsInf(d, 1) {
			s.distance += d
		}
	}
	s.locations = append(s.locations, sample)
	return s.distance, nil
}

// AppendPhoto stores a photo reference while the session is below its
// photo capacity.
func (s *Session) AppendPhoto(photo SessionPhoto) error {
	if photo.SizeBytes <= 0 || photo.SizeBytes > s.opts.MaxPhotoBytes {
		return ErrPhotoSize
	}

	s.photoMu.Lock()
	defer s.photoMu.Unlock()

	if s.closed() {
		return ErrSessionClosed
	}
	if len(s.photos) >= s.opts.PhotoCapacity {
		return ErrPhotoCapacity
	}
	s.photos = append(s.photos, photo)
	return nil
}
