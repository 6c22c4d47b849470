package settlepayment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowinghill/circulation-ledger-go/circulation"
	"github.com/flowinghill/circulation-ledger-go/circulation/memoryengine"
	"github.com/flowinghill/circulation-ledger-go/features/command/settlepayment"
)

func Test_CommandHandler_SettlesPendingFine(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	fine := givenPendingFine(t, ledger, "3.00")
	handler := settlepayment.NewCommandHandler(ledger)

	command := settlepayment.BuildCommand(fine.ID, "card", "front desk", time.Date(2025, 3, 25, 12, 0, 0, 0, time.UTC))

	// act
	settled, _, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, circulation.FineStatusPaid, settled.Status)
	assert.Equal(t, "card", settled.SettlementDetail)
	require.NotNil(t, settled.SettledAt)
	assert.True(t, settled.Amount.Equal(fine.Amount))

	journal := ledger.FineJournal()
	require.Len(t, journal, 1)
	assert.Equal(t, circulation.FineTransactionPaid, journal[0].Kind)
	assert.True(t, journal[0].Amount.Equal(fine.Amount))
	assert.JSONEq(t, `{"method":"card","notes":"front desk"}`, string(journal[0].DetailJSON))
}

func Test_CommandHandler_SecondSettlementFailsAndChangesNothing(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	fine := givenPendingFine(t, ledger, "3.00")
	handler := settlepayment.NewCommandHandler(ledger)

	now := time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC)

	_, _, firstErr := handler.Handle(context.Background(), settlepayment.BuildCommand(fine.ID, "cash", "", now))
	require.NoError(t, firstErr)

	// act
	_, _, err := handler.Handle(context.Background(), settlepayment.BuildCommand(fine.ID, "card", "", now.Add(time.Minute)))

	// assert
	assert.ErrorIs(t, err, circulation.ErrAlreadySettled)

	stored, ok := ledger.GetFine(fine.ID)
	require.True(t, ok)
	assert.Equal(t, circulation.FineStatusPaid, stored.Status)
	assert.Equal(t, "cash", stored.SettlementDetail)
	assert.True(t, stored.Amount.Equal(fine.Amount))

	// the failed attempt must not have appended a journal entry
	assert.Len(t, ledger.FineJournal(), 1)
}

func Test_CommandHandler_FailsWhenFineUnknown(t *testing.T) {
	// arrange
	ledger := memoryengine.NewLedger()
	handler := settlepayment.NewCommandHandler(ledger)

	// act
	_, _, err := handler.Handle(context.Background(), settlepayment.BuildCommand(uuid.New(), "cash", "", time.Now()))

	// assert
	assert.ErrorIs(t, err, circulation.ErrFineNotFound)
}

func givenPendingFine(t *testing.T, ledger *memoryengine.Ledger, amount string) circulation.Fine {
	t.Helper()

	fine := circulation.Fine{
		ID:           uuid.New(),
		LoanID:       uuid.New(),
		PatronID:     uuid.New(),
		Amount:       decimal.RequireFromString(amount),
		DaysOverdue:  6,
		RatePerDay:   decimal.RequireFromString("0.50"),
		Status:       circulation.FineStatusPending,
		CalculatedAt: time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC),
	}

	err := ledger.WithinTx(context.Background(), func(ctx context.Context, session circulation.Session) error {
		return session.InsertFine(ctx, fine)
	})
	require.NoError(t, err)

	return fine
}
