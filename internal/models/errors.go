package models

import "errors"

// Domain-specific errors for board and deal operations
var (
	// ErrDealNotFound indicates the deal is absent from the current board snapshot
	ErrDealNotFound = errors.New("deal not found on board")

	// ErrStageNotFound indicates the stage id does not exist in this pipeline
	ErrStageNotFound = errors.New("stage not found on board")

	// ErrMissingDealID indicates an operation was attempted without a deal id
	ErrMissingDealID = errors.New("deal id is required")

	// ErrSameStage indicates a move where origin and destination are the same stage
	ErrSameStage = errors.New("deal is already in that stage")

	// ErrNotificationNotFound indicates the notification id is unknown
	ErrNotificationNotFound = errors.New("notification not found")
)
