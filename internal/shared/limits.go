package shared

// ClampLimit bounds a caller-supplied page size. Non-positive values fall
// back to def; values beyond max are capped.
func ClampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
