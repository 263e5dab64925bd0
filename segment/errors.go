package segment

import "errors"

var (
	// ErrSegmentationEmpty is recorded on a Result when no strategy found a
	// boundary and the whole document became a single unclassified segment.
	// It is never returned by Segment.
	ErrSegmentationEmpty = errors.New("no segmentation strategy matched")

	// ErrNoStrategies is returned when a Segmenter is configured without strategies.
	ErrNoStrategies = errors.New("at least one segmentation strategy is required")
)
