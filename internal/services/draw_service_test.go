package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories/memory"
	"github.com/retailrewards/rewards-backend/pkg/notifier"
)

const testDrawDate = "2026-08-22"

type failingNotifier struct{}

func (failingNotifier) NotifyWinner(ctx context.Context, phone string, prizeAmount float64, drawDate string) (string, error) {
	return "", errors.New("gateway unreachable")
}

type drawFixture struct {
	svc       *DrawServiceImpl
	draws     *memory.DrawRepository
	receipts  *memory.ReceiptRepository
	customers *memory.CustomerRepository
	notifier  *notifier.MockNotifier
}

func newDrawFixture(t *testing.T) *drawFixture {
	t.Helper()
	f := &drawFixture{
		draws:     memory.NewDrawRepository(),
		receipts:  memory.NewReceiptRepository(),
		customers: memory.NewCustomerRepository(),
		notifier:  notifier.NewMockNotifier(),
	}
	f.svc = NewDrawService(f.draws, f.receipts, f.customers, f.notifier)
	return f
}

// seedReceipt stores a receipt dated inside the test draw day
func (f *drawFixture) seedReceipt(t *testing.T, phone string, amount float64, flag models.FraudFlag, status models.ReceiptStatus) *models.Receipt {
	t.Helper()
	customer, err := f.customers.FindOrCreate(context.Background(), phone, "")
	require.NoError(t, err)

	day, err := time.Parse(models.DrawDateLayout, testDrawDate)
	require.NoError(t, err)

	receipt := &models.Receipt{
		CustomerID:    customer.ID,
		CustomerPhone: phone,
		Amount:        amount,
		FraudFlag:     flag,
		Status:        status,
		CreatedAt:     day.Add(10 * time.Hour),
	}
	require.NoError(t, f.receipts.Create(context.Background(), receipt))
	return receipt
}

func TestRunDrawForDate_SelectsWinner(t *testing.T) {
	f := newDrawFixture(t)
	f.seedReceipt(t, "27820000001", 120, models.FraudFlagValid, models.ReceiptStatusProcessed)
	f.seedReceipt(t, "27820000001", 80, models.FraudFlagReview, models.ReceiptStatusProcessed)
	f.seedReceipt(t, "27820000001", 40, models.FraudFlagValid, models.ReceiptStatusProcessed)

	draw, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)

	assert.Equal(t, models.DrawStatusCompleted, draw.Status)
	assert.Equal(t, 3, draw.TotalReceipts)
	assert.InDelta(t, 240, draw.TotalAmount, 1e-9)
	assert.Equal(t, "27820000001", draw.WinnerCustomerPhone)
	require.NotNil(t, draw.WinnerReceiptID)

	// The winning receipt moved out of the processed state, and the prize
	// refunds exactly that receipt's amount
	won, err := f.receipts.FindByID(context.Background(), *draw.WinnerReceiptID)
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptStatusWon, won.Status)
	assert.InDelta(t, won.Amount, draw.PrizeAmount, 1e-9)

	// Winner aggregates updated with the same prize
	customer, err := f.customers.FindByPhone(context.Background(), "27820000001")
	require.NoError(t, err)
	assert.Equal(t, 1, customer.TotalWins)
	assert.InDelta(t, draw.PrizeAmount, customer.TotalWinnings, 1e-9)

	// Exactly one notification went out, carrying the prize
	require.Len(t, f.notifier.Sent, 1)
	assert.Equal(t, "27820000001", f.notifier.Sent[0].Phone)
	assert.Equal(t, testDrawDate, f.notifier.Sent[0].DrawDate)
	assert.InDelta(t, draw.PrizeAmount, f.notifier.Sent[0].PrizeAmount, 1e-9)
}

func TestRunDrawForDate_PrizeIsWinningReceiptAmount(t *testing.T) {
	f := newDrawFixture(t)
	amounts := []float64{100, 50, 25}
	for i, amount := range amounts {
		f.seedReceipt(t, fmt.Sprintf("2782000000%d", i+1), amount, models.FraudFlagValid, models.ReceiptStatusProcessed)
	}

	draw, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	require.Equal(t, models.DrawStatusCompleted, draw.Status)

	assert.Contains(t, amounts, draw.PrizeAmount)

	won, err := f.receipts.FindByID(context.Background(), *draw.WinnerReceiptID)
	require.NoError(t, err)
	assert.InDelta(t, won.Amount, draw.PrizeAmount, 1e-9)

	winner, err := f.customers.FindByPhone(context.Background(), draw.WinnerCustomerPhone)
	require.NoError(t, err)
	assert.InDelta(t, draw.PrizeAmount, winner.TotalWinnings, 1e-9)
}

func TestRunDrawForDate_CompletedDrawIsIdempotent(t *testing.T) {
	f := newDrawFixture(t)
	f.seedReceipt(t, "27820000001", 100, models.FraudFlagValid, models.ReceiptStatusProcessed)

	first, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	require.Equal(t, models.DrawStatusCompleted, first.Status)

	second, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusCompleted, second.Status)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.WinnerReceiptID, second.WinnerReceiptID)

	// No second notification, no double-counted win
	assert.Len(t, f.notifier.Sent, 1)
	customer, _ := f.customers.FindByPhone(context.Background(), "27820000001")
	assert.Equal(t, 1, customer.TotalWins)
}

func TestRunDrawForDate_EmptyPool(t *testing.T) {
	f := newDrawFixture(t)

	draw, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusNoEntries, draw.Status)
	assert.Equal(t, 0, draw.TotalReceipts)
	assert.Empty(t, f.notifier.Sent)
}

func TestRunDrawForDate_NoEntriesDrawCanRerun(t *testing.T) {
	f := newDrawFixture(t)

	draw, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	require.Equal(t, models.DrawStatusNoEntries, draw.Status)

	f.seedReceipt(t, "27820000002", 80, models.FraudFlagValid, models.ReceiptStatusProcessed)

	rerun, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusCompleted, rerun.Status)
	assert.Equal(t, "27820000002", rerun.WinnerCustomerPhone)
}

func TestRunDrawForDate_ExcludesIneligibleReceipts(t *testing.T) {
	f := newDrawFixture(t)
	f.seedReceipt(t, "27820000001", 100, models.FraudFlagSuspicious, models.ReceiptStatusProcessed)
	f.seedReceipt(t, "27820000002", 100, models.FraudFlagFlagged, models.ReceiptStatusPendingReview)
	f.seedReceipt(t, "27820000003", 100, models.FraudFlagValid, models.ReceiptStatusRejected)

	draw, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusNoEntries, draw.Status)
}

func TestRunDrawForDate_UniformSelectionOverPool(t *testing.T) {
	// Each customer submits one receipt; over many independent draws every
	// customer should win at least once.
	winners := map[string]int{}
	for run := 0; run < 200; run++ {
		f := newDrawFixture(t)
		for i := 0; i < 4; i++ {
			f.seedReceipt(t, fmt.Sprintf("2782000000%d", i), 100, models.FraudFlagValid, models.ReceiptStatusProcessed)
		}
		draw, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
		require.NoError(t, err)
		winners[draw.WinnerCustomerPhone]++
	}
	assert.Len(t, winners, 4, "every entrant should win eventually: %v", winners)
}

func TestRunDrawForDate_NotificationFailureDoesNotFailDraw(t *testing.T) {
	f := newDrawFixture(t)
	f.svc = NewDrawService(f.draws, f.receipts, f.customers, failingNotifier{})
	f.seedReceipt(t, "27820000001", 100, models.FraudFlagValid, models.ReceiptStatusProcessed)

	draw, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusCompleted, draw.Status)
}

// flakyDrawRepo fails a configured number of Complete calls
type flakyDrawRepo struct {
	*memory.DrawRepository
	completeFailures int
}

func (r *flakyDrawRepo) Complete(ctx context.Context, draw *models.Draw) error {
	if r.completeFailures > 0 {
		r.completeFailures--
		return errors.New("write conflict")
	}
	return r.DrawRepository.Complete(ctx, draw)
}

func TestRunDrawForDate_FailedCompleteReleasesClaimAndReceipt(t *testing.T) {
	f := newDrawFixture(t)
	flaky := &flakyDrawRepo{DrawRepository: f.draws, completeFailures: 1}
	f.svc = NewDrawService(flaky, f.receipts, f.customers, f.notifier)
	receipt := f.seedReceipt(t, "27820000001", 75, models.FraudFlagValid, models.ReceiptStatusProcessed)

	_, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.Error(t, err)

	// The receipt is back in the pool, not stranded in won
	stored, err := f.receipts.FindByID(context.Background(), receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReceiptStatusProcessed, stored.Status)

	// No win was counted and nothing was sent
	customer, _ := f.customers.FindByPhone(context.Background(), "27820000001")
	assert.Equal(t, 0, customer.TotalWins)
	assert.Empty(t, f.notifier.Sent)

	// The date is not locked out: a retry draws it to completion
	retried, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusCompleted, retried.Status)
	require.NotNil(t, retried.WinnerReceiptID)
	assert.Equal(t, receipt.ID, *retried.WinnerReceiptID)
	assert.InDelta(t, 75, retried.PrizeAmount, 1e-9)
}

// consumingReceiptRepo marks every pooled receipt won right after the
// pool is read, mimicking a racer consuming the entries
type consumingReceiptRepo struct {
	*memory.ReceiptRepository
}

func (r *consumingReceiptRepo) FindEligibleForDraw(ctx context.Context, date string) ([]*models.Receipt, error) {
	pool, err := r.ReceiptRepository.FindEligibleForDraw(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, receipt := range pool {
		if _, err := r.MarkWon(ctx, receipt.ID); err != nil {
			return nil, err
		}
	}
	return pool, nil
}

func TestRunDrawForDate_ExhaustedPoolRecordsOriginalSize(t *testing.T) {
	f := newDrawFixture(t)
	f.svc = NewDrawService(f.draws, &consumingReceiptRepo{ReceiptRepository: f.receipts}, f.customers, f.notifier)
	f.seedReceipt(t, "27820000001", 100, models.FraudFlagValid, models.ReceiptStatusProcessed)
	f.seedReceipt(t, "27820000002", 200, models.FraudFlagValid, models.ReceiptStatusProcessed)

	draw, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusNoEntries, draw.Status)
	assert.Equal(t, 2, draw.TotalReceipts)

	stored, err := f.draws.FindByDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalReceipts)
}

func TestRunDrawForDate_InvalidDate(t *testing.T) {
	f := newDrawFixture(t)
	_, err := f.svc.RunDrawForDate(context.Background(), "22-08-2026")
	assert.Error(t, err)
}

func TestRunDrawForDate_SkipsReceiptsAlreadyWon(t *testing.T) {
	f := newDrawFixture(t)
	winner := f.seedReceipt(t, "27820000001", 100, models.FraudFlagValid, models.ReceiptStatusProcessed)

	// Simulate the receipt being consumed between pool read and selection
	won, err := f.receipts.MarkWon(context.Background(), winner.ID)
	require.NoError(t, err)
	require.True(t, won)

	draw, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusNoEntries, draw.Status)
}

func TestGetWinsByPhone(t *testing.T) {
	f := newDrawFixture(t)
	f.seedReceipt(t, "27820000001", 100, models.FraudFlagValid, models.ReceiptStatusProcessed)

	_, err := f.svc.RunDrawForDate(context.Background(), testDrawDate)
	require.NoError(t, err)

	wins, err := f.svc.GetWinsByPhone(context.Background(), "27820000001")
	require.NoError(t, err)
	require.Len(t, wins, 1)
	assert.Equal(t, testDrawDate, wins[0].DrawDate)

	none, err := f.svc.GetWinsByPhone(context.Background(), "27829999999")
	require.NoError(t, err)
	assert.Empty(t, none)
}
