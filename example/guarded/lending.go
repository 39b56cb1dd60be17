package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kombucha-js/runtime-typesafety/typesafe"
	"github.com/kombucha-js/runtime-typesafety/typesafe/schema/celvalidator"
	"github.com/kombucha-js/runtime-typesafety/typesafe/schema/jsonschemavalidator"
)

// DefaultLoanDays is the loan period when a request does not ask for one.
const DefaultLoanDays = 14

// ErrReaderBlocked is returned for readers who may not borrow books.
var ErrReaderBlocked = errors.New("reader is blocked")

// LendRequest asks to lend a book copy to a reader.
type LendRequest struct {
	BookID   string `json:"book_id"`
	ReaderID string `json:"reader_id"`
	Days     int    `json:"days,omitempty"`
}

// Loan is the result of a granted LendRequest.
type Loan struct {
	LoanID   string `json:"loan_id"`
	BookID   string `json:"book_id"`
	ReaderID string `json:"reader_id"`
	DueDays  int    `json:"due_days"`
}

// The request schema allows up to 60 days; the loan policy grants at most 28.
const lendRequestSchema = `{
	"type": "object",
	"required": ["book_id", "reader_id"],
	"properties": {
		"book_id": {"type": "string", "pattern": "^b-[0-9]+$"},
		"reader_id": {"type": "string", "minLength": 1},
		"days": {"type": "integer", "minimum": 1, "maximum": 60}
	}
}`

const loanPolicy = `value.loan_id != "" && value.due_days >= 1 && value.due_days <= 28`

// newLendBook guards lendBook. Extra args are passed to typesafe.Wrap.
func newLendBook(blocked map[string]bool, args ...any) (*typesafe.Function, error) {
	input, err := jsonschemavalidator.Compile("lend_request", lendRequestSchema)
	if err != nil {
		return nil, err
	}

	output, err := celvalidator.Compile(loanPolicy)
	if err != nil {
		return nil, err
	}

	lend := func(_ context.Context, req LendRequest) (Loan, error) {
		if blocked[req.ReaderID] {
			return Loan{}, fmt.Errorf("%w: %s", ErrReaderBlocked, req.ReaderID)
		}

		days := req.Days
		if days == 0 {
			days = DefaultLoanDays
		}

		return Loan{
			LoanID:   uuid.NewString(),
			BookID:   req.BookID,
			ReaderID: req.ReaderID,
			DueDays:  days,
		}, nil
	}

	return typesafe.Wrap(append([]any{
		typesafe.Lift1(lend),
		"library", "lending",
		typesafe.WithName("lendBook"),
		typesafe.WithInput(jsonschemavalidator.Factory(input)),
		typesafe.WithOutput(celvalidator.Factory(output)),
		typesafe.WithProperty("policy", loanPolicy),
	}, args...)...)
}
