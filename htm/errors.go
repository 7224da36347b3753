package htm

// Error types attached to the errors returned by this package. Use
// errors.IsType from go-tooling to test for them.
const (
	ErrTypeInvalidDepth       = "htm_invalid_depth"
	ErrTypeInvalidIndex       = "htm_invalid_index"
	ErrTypeInvalidName        = "htm_invalid_name"
	ErrTypeInvalidDirection   = "htm_invalid_direction"
	ErrTypeDegenerateTriangle = "htm_degenerate_triangle"
	ErrTypeOutOfDomain        = "htm_out_of_domain"
)
