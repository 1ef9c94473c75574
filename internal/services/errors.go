package services

import (
	"errors"

	"golang.org/x/exp/slog"
)

var (
	// ErrInsufficientParticipants means fewer than three eligible standings exist. No record is written.
	ErrInsufficientParticipants = errors.New("insufficient eligible participants")
	// ErrSlotClosed means the current UTC hour is odd and no draw slot is open
	ErrSlotClosed = errors.New("no draw slot is open at this hour")
	// ErrInvalidWeights is a configuration fault in the win weight table
	ErrInvalidWeights = errors.New("invalid win weight table")
	// ErrDrawInProgress is returned to a trigger that arrives while another draw runs
	ErrDrawInProgress = errors.New("draw already in progress")
	// ErrAlreadyDrawn means the slot already has a record
	ErrAlreadyDrawn = errors.New("draw already executed for this slot")
	// ErrInvalidOperatorKey is returned when a token is requested with the wrong key
	ErrInvalidOperatorKey = errors.New("invalid operator key")
)

// LevelCritical is used when money may have moved without a matching ledger entry
const LevelCritical = slog.Level(12)
