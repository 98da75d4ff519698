package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retailrewards/rewards-backend/internal/fraud"
	"github.com/retailrewards/rewards-backend/internal/geo"
	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories/memory"
	"github.com/retailrewards/rewards-backend/pkg/geocoder"
)

// Johannesburg CBD
var shopLat, shopLon = -26.2041, 28.0473

func ptr(v float64) *float64 { return &v }

func newIngestionFixture(geo geocoder.Geocoder) (*IngestionServiceImpl, *memory.CustomerRepository, *memory.ShopRepository, *memory.ReceiptRepository) {
	customers := memory.NewCustomerRepository()
	shops := memory.NewShopRepository()
	receipts := memory.NewReceiptRepository()
	classifier := fraud.NewClassifier(fraud.DefaultThresholds())
	svc := NewIngestionService(customers, shops, receipts, classifier, geo)
	return svc, customers, shops, receipts
}

func validInput() IngestReceiptInput {
	return IngestReceiptInput{
		CustomerPhone:   "27821234567",
		CustomerName:    "Thandi M",
		ShopName:        "SuperMart",
		ShopAddress:     "12 Main Rd, Johannesburg",
		Amount:          149.90,
		Currency:        "ZAR",
		ShopLatitude:    ptr(shopLat),
		ShopLongitude:   ptr(shopLon),
		UploadLatitude:  ptr(shopLat + 0.01),
		UploadLongitude: ptr(shopLon + 0.01),
	}
}

func TestIngestReceipt_ValidReceipt(t *testing.T) {
	svc, customers, shops, _ := newIngestionFixture(nil)

	receipt, err := svc.IngestReceipt(context.Background(), validInput())
	require.NoError(t, err)

	assert.Equal(t, models.FraudFlagValid, receipt.FraudFlag)
	assert.Equal(t, models.ReceiptStatusProcessed, receipt.Status)
	assert.NotNil(t, receipt.DistanceKm)
	assert.Less(t, *receipt.DistanceKm, 50.0)
	assert.True(t, receipt.FraudScore >= 0 && receipt.FraudScore < 20)

	customer, err := customers.FindByPhone(context.Background(), "27821234567")
	require.NoError(t, err)
	assert.Equal(t, 1, customer.TotalReceipts)
	assert.InDelta(t, 149.90, customer.TotalSpent, 1e-9)
	require.NotNil(t, customer.LastLatitude)
	assert.InDelta(t, shopLat+0.01, *customer.LastLatitude, 1e-9)

	require.NotNil(t, receipt.ShopID)
	shop, err := shops.FindByID(context.Background(), *receipt.ShopID)
	require.NoError(t, err)
	assert.Equal(t, 1, shop.ReceiptCount)
	assert.InDelta(t, 149.90, shop.TotalSales, 1e-9)
}

func TestIngestReceipt_InvalidAmountLeavesNoTrace(t *testing.T) {
	svc, customers, shops, receipts := newIngestionFixture(nil)

	for _, amount := range []float64{0, -10} {
		input := validInput()
		input.Amount = amount
		_, err := svc.IngestReceipt(context.Background(), input)
		assert.True(t, errors.Is(err, models.ErrInvalidAmount), "amount %v", amount)
	}

	customerCount, _ := customers.Count(context.Background())
	shopCount, _ := shops.Count(context.Background())
	stats, _ := receipts.FraudStats(context.Background())
	assert.EqualValues(t, 0, customerCount)
	assert.EqualValues(t, 0, shopCount)
	assert.Equal(t, 0, stats.TotalReceipts)
}

func TestIngestReceipt_MissingCustomerPhone(t *testing.T) {
	svc, _, _, _ := newIngestionFixture(nil)

	input := validInput()
	input.CustomerPhone = "   "
	_, err := svc.IngestReceipt(context.Background(), input)
	assert.True(t, errors.Is(err, models.ErrMissingCustomer))
}

func TestIngestReceipt_MissingCoordinatesHeldAtReview(t *testing.T) {
	svc, _, _, _ := newIngestionFixture(nil)

	input := validInput()
	input.UploadLatitude = nil
	input.UploadLongitude = nil

	receipt, err := svc.IngestReceipt(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, models.FraudFlagReview, receipt.FraudFlag)
	assert.Equal(t, 50, receipt.FraudScore)
	assert.Equal(t, models.ReceiptStatusProcessed, receipt.Status)
	assert.Nil(t, receipt.DistanceKm)
}

func TestIngestReceipt_InvalidCoordinatesDegrade(t *testing.T) {
	svc, _, _, _ := newIngestionFixture(nil)

	input := validInput()
	input.UploadLatitude = ptr(95) // out of range
	input.UploadLongitude = ptr(28)

	receipt, err := svc.IngestReceipt(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, models.FraudFlagReview, receipt.FraudFlag)
	assert.Equal(t, 50, receipt.FraudScore)
}

func TestIngestReceipt_ExtremeDistanceHeldForReview(t *testing.T) {
	svc, _, _, _ := newIngestionFixture(nil)

	input := validInput()
	// Cape Town, ~1260 km from the shop
	input.UploadLatitude = ptr(-33.9249)
	input.UploadLongitude = ptr(18.4241)

	receipt, err := svc.IngestReceipt(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, models.FraudFlagFlagged, receipt.FraudFlag)
	assert.Equal(t, 95, receipt.FraudScore)
	assert.Equal(t, models.ReceiptStatusPendingReview, receipt.Status)
}

func TestIngestReceipt_ShopNameDeduplication(t *testing.T) {
	svc, _, shops, _ := newIngestionFixture(nil)

	first := validInput()
	first.ShopName = "  SuperMart "
	second := validInput()
	second.ShopName = "supermart"
	second.Amount = 50

	_, err := svc.IngestReceipt(context.Background(), first)
	require.NoError(t, err)
	_, err = svc.IngestReceipt(context.Background(), second)
	require.NoError(t, err)

	count, _ := shops.Count(context.Background())
	assert.EqualValues(t, 1, count)

	all, _ := shops.FindAll(context.Background(), 0, 10)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].ReceiptCount)
	assert.InDelta(t, 199.90, all[0].TotalSales, 1e-9)
}

func TestIngestReceipt_ConcurrentSameShop(t *testing.T) {
	svc, _, shops, _ := newIngestionFixture(nil)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			input := validInput()
			input.CustomerPhone = fmt.Sprintf("278212345%02d", i)
			_, err := svc.IngestReceipt(context.Background(), input)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	count, _ := shops.Count(context.Background())
	assert.EqualValues(t, 1, count)
	all, _ := shops.FindAll(context.Background(), 0, 10)
	require.Len(t, all, 1)
	assert.Equal(t, n, all[0].ReceiptCount)
}

func TestIngestReceipt_GeocoderBackfill(t *testing.T) {
	mock := geocoder.NewMockGeocoder(map[string]geo.Coordinates{
		"SuperMart, 12 Main Rd, Johannesburg": {Latitude: shopLat, Longitude: shopLon},
	})
	svc, _, shops, _ := newIngestionFixture(mock)

	input := validInput()
	input.ShopLatitude = nil
	input.ShopLongitude = nil

	receipt, err := svc.IngestReceipt(context.Background(), input)
	require.NoError(t, err)

	// Classification used the geocoded coordinates
	assert.Equal(t, models.FraudFlagValid, receipt.FraudFlag)
	require.NotNil(t, receipt.ShopLatitude)
	assert.InDelta(t, shopLat, *receipt.ShopLatitude, 1e-9)

	// And the shop record was backfilled for next time
	shop, err := shops.FindByID(context.Background(), *receipt.ShopID)
	require.NoError(t, err)
	require.NotNil(t, shop.Latitude)
	assert.InDelta(t, shopLat, *shop.Latitude, 1e-9)
}

func TestIngestReceipt_NoShopName(t *testing.T) {
	svc, _, shops, _ := newIngestionFixture(nil)

	input := validInput()
	input.ShopName = ""
	input.ShopLatitude = nil
	input.ShopLongitude = nil

	receipt, err := svc.IngestReceipt(context.Background(), input)
	require.NoError(t, err)
	assert.Nil(t, receipt.ShopID)
	assert.Equal(t, models.FraudFlagReview, receipt.FraudFlag)

	count, _ := shops.Count(context.Background())
	assert.EqualValues(t, 0, count)
}
