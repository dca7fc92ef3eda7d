package service

import "github.com/mtlprog/taskbasket/internal/domain"

// operation names a lifecycle transition of the task state machine.
type operation string

const (
	opClaim          operation = "claim"
	opForceClaim     operation = "force claim"
	opCancelClaim    operation = "cancel claim"
	opRequestReview  operation = "request review"
	opRequestChanges operation = "request changes"
	opComplete       operation = "complete"
	opForceComplete  operation = "force complete"
	opCancel         operation = "cancel"
	opTerminate      operation = "terminate"
	opTransfer       operation = "transfer"
	opReopen         operation = "reopen"
	opSetOwner       operation = "set owner"
)

// nonEndStates are the states regular work happens in.
var nonEndStates = []domain.TaskState{
	domain.TaskStateReady,
	domain.TaskStateClaimed,
	domain.TaskStateReadyForReview,
	domain.TaskStateInReview,
}

// nonFinalStates additionally include COMPLETED, which can still be forced
// or reopened.
var nonFinalStates = append(append([]domain.TaskState(nil), nonEndStates...), domain.TaskStateCompleted)

// transition describes one row of the state machine: which source states an
// operation accepts and which state it produces.
type transition struct {
	sources []domain.TaskState
	target  domain.TaskState
}

var transitions = map[operation]transition{
	opClaim:          {sources: []domain.TaskState{domain.TaskStateReady}, target: domain.TaskStateClaimed},
	opForceClaim:     {sources: nonEndStates, target: domain.TaskStateClaimed},
	opCancelClaim:    {sources: []domain.TaskState{domain.TaskStateClaimed, domain.TaskStateInReview}, target: domain.TaskStateReady},
	opRequestReview:  {sources: []domain.TaskState{domain.TaskStateClaimed}, target: domain.TaskStateInReview},
	opRequestChanges: {sources: []domain.TaskState{domain.TaskStateInReview}, target: domain.TaskStateReady},
	opComplete:       {sources: []domain.TaskState{domain.TaskStateClaimed}, target: domain.TaskStateCompleted},
	opForceComplete:  {sources: nonFinalStates, target: domain.TaskStateCompleted},
	opCancel:         {sources: []domain.TaskState{domain.TaskStateReady, domain.TaskStateClaimed}, target: domain.TaskStateCancelled},
	opTerminate:      {sources: []domain.TaskState{domain.TaskStateReady, domain.TaskStateClaimed}, target: domain.TaskStateTerminated},
	opTransfer:       {sources: nonEndStates, target: domain.TaskStateReady},
	opReopen:         {sources: []domain.TaskState{domain.TaskStateCompleted}, target: domain.TaskStateReady},
	opSetOwner:       {sources: []domain.TaskState{domain.TaskStateReady}, target: domain.TaskStateReady},
}

// requireState checks that the task is in a legal source state for the
// operation.
func requireState(task *domain.Task, op operation) error {
	tr := transitions[op]
	for _, s := range tr.sources {
		if task.State == s {
			return nil
		}
	}
	return &domain.InvalidTaskStateError{
		TaskID:   task.ID,
		Actual:   task.State,
		Expected: tr.sources,
	}
}

// targetState returns the state the operation produces.
func targetState(op operation) domain.TaskState {
	return transitions[op].target
}
