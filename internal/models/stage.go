package models

// Stage represents a pipeline stage (e.g., "Qualified", "Proposal", "Won").
// Stages are defined by the pipeline fetched from the server; the client
// moves deals between them but never creates or destroys them.
type Stage struct {
	ID           string
	Name         string
	DisplayOrder int // position among sibling stages, ascending left to right
}
