package service

import "fmt"

// Stage names the projection step that failed after the record write.
type Stage string

const (
	StageGraph    Stage = "graph"
	StageIndex    Stage = "index"
	StageRelation Stage = "relation"
)

// FanoutError reports an entity that exists in the record store but could not
// be fully projected. The record is not rolled back.
type FanoutError struct {
	Stage    Stage
	EntityID int64
	Err      error
}

func (e *FanoutError) Error() string {
	return fmt.Sprintf("%s projection of entity %d: %v", e.Stage, e.EntityID, e.Err)
}

func (e *FanoutError) Unwrap() error {
	return e.Err
}
