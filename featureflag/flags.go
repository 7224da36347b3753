package featureflag

type Flag string

const (
	FlagDisablePlanarIndex   Flag = "DISABLE_PLANAR_INDEX"
	FlagDisableStreaming     Flag = "DISABLE_STREAMING"
	FlagDisableHalfSpace     Flag = "DISABLE_HALFSPACE"
	FlagDisableTrixelListing Flag = "DISABLE_TRIXEL_LISTING"
)
