package service

import dErrors "clearledger/pkg/domain-errors"

var (
	ErrLedgerNotFound = dErrors.New(dErrors.CodeNotFound, "ledger not found")
	ErrNotOwner       = dErrors.New(dErrors.CodeForbidden, "only the ledger owner can share it")
	ErrMemberNotFound = dErrors.New(dErrors.CodeNotFound, "user not found")
	ErrAlreadyMember  = dErrors.New(dErrors.CodeConflict, "user is already a member of this ledger")
)
