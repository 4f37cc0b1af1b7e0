package testutil

// FixedRequestIDs returns the same request id every time.
//
// Golden traces compare request ids verbatim, so scenario runs use a fixed
// id instead of UUIDv7.
//
// Thread-safety: stateless and safe for concurrent use.
type FixedRequestIDs struct {
	id string
}

// NewFixedRequestIDs creates a generator. An empty id becomes "test-request".
func NewFixedRequestIDs(id string) FixedRequestIDs {
	if id == "" {
		id = "test-request"
	}
	return FixedRequestIDs{id: id}
}

// Generate returns the fixed id.
func (g FixedRequestIDs) Generate() string {
	return g.id
}
