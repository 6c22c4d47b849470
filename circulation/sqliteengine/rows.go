package sqliteengine

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flowinghill/circulation-ledger-go/circulation"
)

// ErrScanningDBRowFailed wraps scan and parse failures on result rows.
var ErrScanningDBRowFailed = errors.New("scanning database row failed")

const (
	loanColumns = `id, book_id, patron_id, issue_date, due_date, return_date, status, renewal_count, condition_on_return`
	fineColumns = `id, loan_id, patron_id, amount, days_overdue, rate_per_day, status, calculated_at, settled_at, settlement_detail`
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, raw)
}

func newSummaryStats() circulation.SummaryStats {
	return circulation.SummaryStats{
		PendingFineTotal: decimal.Zero,
		PaidFineTotal:    decimal.Zero,
		WaivedFineTotal:  decimal.Zero,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(row rowScanner) (circulation.Loan, error) {
	var (
		idRaw, bookIDRaw, patronIDRaw string
		issueRaw, dueRaw              string
		returnRaw                     sql.NullString
		status                        string
		renewalCount                  int
		conditionOnReturn             string
	)

	scanErr := row.Scan(
		&idRaw, &bookIDRaw, &patronIDRaw,
		&issueRaw, &dueRaw, &returnRaw,
		&status, &renewalCount, &conditionOnReturn,
	)
	if scanErr != nil {
		return circulation.Loan{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	loan := circulation.Loan{
		Status:            circulation.LoanStatus(status),
		RenewalCount:      renewalCount,
		ConditionOnReturn: conditionOnReturn,
	}

	var parseErr error

	if loan.ID, parseErr = uuid.Parse(idRaw); parseErr != nil {
		return circulation.Loan{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	if loan.BookID, parseErr = uuid.Parse(bookIDRaw); parseErr != nil {
		return circulation.Loan{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	if loan.PatronID, parseErr = uuid.Parse(patronIDRaw); parseErr != nil {
		return circulation.Loan{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	if loan.IssueDate, parseErr = parseTime(issueRaw); parseErr != nil {
		return circulation.Loan{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	if loan.DueDate, parseErr = parseTime(dueRaw); parseErr != nil {
		return circulation.Loan{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	if returnRaw.Valid {
		returned, returnErr := parseTime(returnRaw.String)
		if returnErr != nil {
			return circulation.Loan{}, errors.Join(ErrScanningDBRowFailed, returnErr)
		}

		loan.ReturnDate = &returned
	}

	return loan, nil
}

func scanFine(row rowScanner) (circulation.Fine, error) {
	var (
		idRaw, loanIDRaw, patronIDRaw string
		amountRaw, rateRaw            string
		daysOverdue                   int
		status                        string
		calculatedRaw                 string
		settledRaw                    sql.NullString
		settlementDetail              string
	)

	scanErr := row.Scan(
		&idRaw, &loanIDRaw, &patronIDRaw,
		&amountRaw, &daysOverdue, &rateRaw,
		&status, &calculatedRaw, &settledRaw, &settlementDetail,
	)
	if scanErr != nil {
		return circulation.Fine{}, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	fine := circulation.Fine{
		DaysOverdue:      daysOverdue,
		Status:           circulation.FineStatus(status),
		SettlementDetail: settlementDetail,
	}

	var parseErr error

	if fine.ID, parseErr = uuid.Parse(idRaw); parseErr != nil {
		return circulation.Fine{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	if fine.LoanID, parseErr = uuid.Parse(loanIDRaw); parseErr != nil {
		return circulation.Fine{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	if fine.PatronID, parseErr = uuid.Parse(patronIDRaw); parseErr != nil {
		return circulation.Fine{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	if fine.Amount, parseErr = decimal.NewFromString(amountRaw); parseErr != nil {
		return circulation.Fine{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	if fine.RatePerDay, parseErr = decimal.NewFromString(rateRaw); parseErr != nil {
		return circulation.Fine{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	if fine.CalculatedAt, parseErr = parseTime(calculatedRaw); parseErr != nil {
		return circulation.Fine{}, errors.Join(ErrScanningDBRowFailed, parseErr)
	}

	if settledRaw.Valid {
		settled, settledErr := parseTime(settledRaw.String)
		if settledErr != nil {
			return circulation.Fine{}, errors.Join(ErrScanningDBRowFailed, settledErr)
		}

		fine.SettledAt = &settled
	}

	return fine, nil
}
