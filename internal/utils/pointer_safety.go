package utils

// Value dereferences v, treating nil as the zero value. Collaborator API
// responses leave optional objects as nil pointers; this keeps their
// consumers free of nil guards.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to v, for optional JSON response fields that should
// be omitted rather than rendered as zero values.
func Ptr[T any](v T) *T {
	return &v
}
