package catalog

// The placeholder row display front ends fall back to when a lookup misses.
const (
	SentinelExternalID = 0
	SentinelName       = "Not Found"
)

// SentinelRow builds the placeholder row. Experience, height and weight are -1
// so they cannot be mistaken for real values; stats are zero.
func SentinelRow(sprites Sprites) EntityRow {
	return EntityRow{
		ExternalID:     SentinelExternalID,
		Name:           SentinelName,
		LargeSprite:    sprites.Large,
		SmallSprite:    sprites.Small,
		BaseExperience: -1,
		Height:         -1,
		Weight:         -1,
	}
}

// IsSentinel reports whether row is the placeholder row.
func IsSentinel(row EntityRow) bool {
	return row.ExternalID == SentinelExternalID
}
