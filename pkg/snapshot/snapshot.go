// Package snapshot holds the highlights statistics record and its file formats.
package snapshot

import (
	"math"

	"github.com/pkg/errors"
)

// percentSlack absorbs rounding in percentages that were rounded to one decimal upstream.
const percentSlack = 0.05

// Pending returns a snapshot in the pending state.
func Pending() (s Snapshot) {
	s = Snapshot{State: StatePending}
	return s
}

// IsPending reports whether the snapshot is in the pending state.
func (s *Snapshot) IsPending() (pending bool) {
	pending = s.State == StatePending
	return pending
}

// normalize infers a missing state from the presence of a generation time.
func (s *Snapshot) normalize() {
	if s.State != "" {
		return
	}

	if s.GeneratedAt.IsZero() {
		s.State = StatePending
		return
	}

	s.State = StatePopulated
}

// Validate checks that the snapshot is wholly pending or wholly populated.
func (s *Snapshot) Validate() (err error) {
	switch s.State {
	case StatePending:
		err = s.validatePending()
	case StatePopulated:
		err = s.validatePopulated()
	default:
		err = errors.Errorf("unknown snapshot state %q", s.State)
	}

	return err
}

func (s *Snapshot) validatePending() (err error) {
	if !s.GeneratedAt.IsZero() {
		err = errors.New("pending snapshot must not carry generated_at")
		return err
	}

	if len(s.LanguageMix) > 0 {
		err = errors.New("pending snapshot must not carry a language mix")
		return err
	}

	for name, value := range s.counters() {
		if value != 0 {
			err = errors.Errorf("pending snapshot must not carry %s", name)
			return err
		}
	}

	return err
}

func (s *Snapshot) validatePopulated() (err error) {
	if s.GeneratedAt.IsZero() {
		err = errors.New("populated snapshot requires generated_at")
		return err
	}

	for name, value := range s.counters() {
		if value < 0 {
			err = errors.Errorf("%s must be non-negative, got %d", name, value)
			return err
		}
	}

	if len(s.LanguageMix) > MaxLanguages {
		err = errors.Errorf("language mix has %d entries, at most %d allowed", len(s.LanguageMix), MaxLanguages)
		return err
	}

	total := 0.0
	for i, share := range s.LanguageMix {
		if share.Label == "" {
			err = errors.Errorf("language mix entry %d missing label", i)
			return err
		}
		if math.IsNaN(share.Percentage) || share.Percentage < 0 || share.Percentage > 100 {
			err = errors.Errorf("language %s percentage %.2f out of range", share.Label, share.Percentage)
			return err
		}
		total += share.Percentage
	}

	if total > 100+percentSlack {
		err = errors.Errorf("language mix percentages sum to %.2f", total)
		return err
	}

	return err
}

// counters lists every integer field by its serialized name.
func (s *Snapshot) counters() (fields map[string]int) {
	fields = map[string]int{
		"contributions_30d":           s.Contributions30d,
		"contributions_90d":           s.Contributions90d,
		"original_vs_forked.original": s.OriginalVsForked.Original,
		"original_vs_forked.forked":   s.OriginalVsForked.Forked,
		"active_vs_archived.active":   s.ActiveVsArchived.Active,
		"active_vs_archived.archived": s.ActiveVsArchived.Archived,
		"public_repo_count":           s.PublicRepoCount,
		"private_repo_count":          s.PrivateRepoCount,
		"star_count":                  s.StarCount,
		"follower_count":              s.FollowerCount,
	}
	return fields
}
