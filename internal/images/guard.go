package images

// Guard enforces the single structural invariant on a listing's image set:
// it must never be empty after a successful write. Callers run Guard before
// any persistent mutation or cleanup.
func Guard(list []string) ([]string, error) {
	if len(list) == 0 {
		return nil, ErrEmptyResult
	}
	return list, nil
}
