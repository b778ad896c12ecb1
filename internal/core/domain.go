package core

import (
	"errors"
	"time"
)

// ActivityType tells whether a transaction moved money into or out of the
// account. The sign of the original ledger amount is folded into this type;
// Transaction.Amount is always a magnitude.
type ActivityType int

const (
	Credit ActivityType = iota
	Debit
)

func (t ActivityType) String() string {
	switch t {
	case Credit:
		return "credit"
	case Debit:
		return "debit"
	}
	return "unknown"
}

// Transaction is one income or expense event from the bank export.
// Category is the only mutable field; the classifier writes it on debit
// transactions and nothing else ever touches it.
type Transaction struct {
	Date         time.Time
	ActivityType ActivityType
	ActivityName string
	Amount       Money
	Currency     string
	Locality     string
	Actor        string
	Category     CategoryID // empty until classified; debits only
}

var (
	ErrNegativeAmount  = errors.New("transaction amount must not be negative")
	ErrCreditCategory  = errors.New("credit transactions cannot carry a category")
	ErrUnknownCategory = errors.New("unknown category id")
	ErrZeroDate        = errors.New("transaction date cannot be zero")
)

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if t.Amount.Cents < 0 {
		return ErrNegativeAmount
	}
	if t.ActivityType == Credit && t.Category != "" {
		return ErrCreditCategory
	}
	if t.Category != "" && !t.Category.Valid() {
		return ErrUnknownCategory
	}
	return nil
}

// TimePeriod is an inclusive calendar bound used to scope aggregation.
// An End before Start is not an error; it just yields empty results.
type TimePeriod struct {
	Start time.Time
	End   time.Time
}

// PeriodFromUnixMillis builds a TimePeriod from the Unix-millisecond
// timestamps the query surface speaks.
func PeriodFromUnixMillis(start, end int64) TimePeriod {
	return TimePeriod{
		Start: time.UnixMilli(start),
		End:   time.UnixMilli(end),
	}
}

// Contains reports whether ts falls inside the period, both ends inclusive.
func (p TimePeriod) Contains(ts time.Time) bool {
	return !ts.Before(p.Start) && !ts.After(p.End)
}
