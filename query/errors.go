package query

import (
	"fmt"

	"github.com/poiesic/lexis/core"
)

var (
	// ErrEmptyQuery is returned for a blank query text.
	ErrEmptyQuery = fmt.Errorf("%w: query text is empty", core.ErrValidation)

	// ErrQueryTooLong is returned when the query exceeds the configured length.
	ErrQueryTooLong = fmt.Errorf("%w: query text is too long", core.ErrValidation)
)
