package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

type Kind string

const (
	KindAmbiguousOwner       Kind = "AmbiguousOwner"
	KindNoOwner              Kind = "NoOwner"
	KindInsufficientFunds    Kind = "InsufficientFunds"
	KindNotMember            Kind = "NotMember"
	KindNotAdmin             Kind = "NotAdmin"
	KindCreatorProtected     Kind = "CreatorProtected"
	KindLastAdminProtected   Kind = "LastAdminProtected"
	KindCrossContextTransfer Kind = "CrossContextTransfer"
	KindForbiddenDirectEdit  Kind = "ForbiddenDirectEdit"
	KindNotFound             Kind = "NotFound"
	KindDuplicateName        Kind = "DuplicateName"
	KindRestrictedDeletion   Kind = "RestrictedDeletion"
	KindAlreadyMember        Kind = "AlreadyMember"
	KindInvalidInput         Kind = "InvalidInput"
)

// Error is a domain failure reported to the caller. Available is set for
// InsufficientFunds.
type Error struct {
	Kind      Kind
	Message   string
	Available *int64
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

// Is matches any *Error of the same kind, so errors.Is works against the
// sentinels below regardless of message.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

var (
	ErrAmbiguousOwner       = &Error{Kind: KindAmbiguousOwner}
	ErrNoOwner              = &Error{Kind: KindNoOwner}
	ErrInsufficientFunds    = &Error{Kind: KindInsufficientFunds}
	ErrNotMember            = &Error{Kind: KindNotMember}
	ErrNotAdmin             = &Error{Kind: KindNotAdmin}
	ErrCreatorProtected     = &Error{Kind: KindCreatorProtected}
	ErrLastAdminProtected   = &Error{Kind: KindLastAdminProtected}
	ErrCrossContextTransfer = &Error{Kind: KindCrossContextTransfer}
	ErrForbiddenDirectEdit  = &Error{Kind: KindForbiddenDirectEdit}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrDuplicateName        = &Error{Kind: KindDuplicateName}
	ErrRestrictedDeletion   = &Error{Kind: KindRestrictedDeletion}
	ErrAlreadyMember        = &Error{Kind: KindAlreadyMember}
	ErrInvalidInput         = &Error{Kind: KindInvalidInput}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func insufficientFunds(pocketName string, available int64) *Error {
	return &Error{
		Kind:      KindInsufficientFunds,
		Message:   fmt.Sprintf("pocket %q cannot cover the debit", pocketName),
		Available: &available,
	}
}

// KindOf returns the domain kind of err, or "" for plumbing errors.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// translateDBError maps lookups that found nothing and storage constraint
// violations onto the domain taxonomy. entity names the row kind for
// NotFound messages. Other errors pass through unchanged.
func translateDBError(err error, entity string) error {
	return translatePQError(err, entity, false)
}

// translateDeleteError is translateDBError for deletes, where a foreign key
// violation means other rows still point at the one being removed.
func translateDeleteError(err error, entity string) error {
	return translatePQError(err, entity, true)
}

func translatePQError(err error, entity string, deleting bool) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return newError(KindNotFound, "%s not found", entity)
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	constraint := pqErr.Constraint
	switch pqErr.Code {
	case "23505":
		if constraint == "memberships_pkey" {
			return newError(KindAlreadyMember, "user is already a member of the group")
		}
		if constraint == "users_email_key" {
			return newError(KindDuplicateName, "email is already registered")
		}
		return newError(KindDuplicateName, "%s with that name already exists", entity)
	case "23514":
		switch {
		case constraint == "pockets_balance_check":
			return newError(KindInsufficientFunds, "pocket balance cannot go negative")
		case strings.HasSuffix(constraint, "_owner_xor"), strings.HasSuffix(constraint, "_owner_exclusive"):
			return newError(KindAmbiguousOwner, "%s must belong to exactly one user or group", entity)
		default:
			return newError(KindInvalidInput, "%s violates %s", entity, constraint)
		}
	case "23503":
		if deleting {
			return newError(KindRestrictedDeletion, "%s is still referenced by other records", entity)
		}
		return newError(KindNotFound, "%s refers to a row that does not exist", entity)
	case "23502":
		return newError(KindInvalidInput, "%s is missing a required field", entity)
	}
	return err
}
