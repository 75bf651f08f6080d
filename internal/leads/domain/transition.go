package domain

import (
	"errors"
	"time"
)

// Direction is a one-step move along the pipeline.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

var (
	ErrUnknownStage        = errors.New("unknown stage")
	ErrUnknownDirection    = errors.New("unknown direction")
	ErrAlreadyAtFinalStage = errors.New("already at final stage")
	ErrAlreadyAtFirstStage = errors.New("already at first stage")
)

// AdvanceRequest asks for either an explicit target stage or a one-step move.
// When Stage is set, Direction is ignored. An empty Direction means forward.
type AdvanceRequest struct {
	Stage     Stage
	Direction Direction
}

// Transition is the outcome of a successful Advance.
type Transition struct {
	Lead     Lead
	Previous Stage
	Current  Stage
	// Distance is the signed number of positions moved; explicit moves may
	// jump several stages at once.
	Distance int
}

// Advance applies req to lead and returns the moved copy. The input lead is
// never modified; on error nothing has changed.
//
// Explicit stage moves are not adjacency checked so that an agent can correct
// a record without walking it stage by stage.
func Advance(lead Lead, req AdvanceRequest, now time.Time) (Transition, error) {
	target, err := resolveTarget(lead.Stage, req)
	if err != nil {
		return Transition{}, err
	}

	// An unknown current stage (legacy row) counts from position 0.
	prevIdx, _ := StageIndex(lead.Stage)
	nextIdx, _ := StageIndex(target)
	distance := nextIdx - prevIdx

	moved := lead
	moved.Stage = target
	moved.UpdatedAt = nextStamp(lead.UpdatedAt, now)

	return Transition{
		Lead:     moved,
		Previous: lead.Stage,
		Current:  target,
		Distance: distance,
	}, nil
}

func resolveTarget(current Stage, req AdvanceRequest) (Stage, error) {
	if req.Stage != "" {
		if !IsKnownStage(req.Stage) {
			return "", ErrUnknownStage
		}
		return req.Stage, nil
	}

	idx, ok := StageIndex(current)
	if !ok {
		// A directional move needs a position to move from.
		return "", ErrUnknownStage
	}

	switch req.Direction {
	case "", DirectionForward:
		if idx >= StageCount-1 {
			return "", ErrAlreadyAtFinalStage
		}
		return pipelineStages[idx+1], nil
	case DirectionBackward:
		if idx == 0 {
			return "", ErrAlreadyAtFirstStage
		}
		return pipelineStages[idx-1], nil
	default:
		return "", ErrUnknownDirection
	}
}

// nextStamp keeps UpdatedAt strictly increasing across stage changes even when
// the supplied clock is equal to or behind the stored value. Microsecond
// resolution matches what postgres timestamptz keeps.
func nextStamp(previous, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if now.After(previous) {
		return now
	}
	return previous.Add(time.Microsecond)
}
