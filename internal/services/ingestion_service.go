package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/retailrewards/rewards-backend/internal/fraud"
	"github.com/retailrewards/rewards-backend/internal/geo"
	"github.com/retailrewards/rewards-backend/internal/models"
	"github.com/retailrewards/rewards-backend/internal/repositories"
	"github.com/retailrewards/rewards-backend/pkg/geocoder"
)

// Compile-time check to ensure IngestionServiceImpl implements IngestionService
var _ IngestionService = (*IngestionServiceImpl)(nil)

// IngestionServiceImpl handles the receipt ingestion pipeline
type IngestionServiceImpl struct {
	customerRepo repositories.CustomerRepository
	shopRepo     repositories.ShopRepository
	receiptRepo  repositories.ReceiptRepository
	classifier   *fraud.Classifier
	geocoder     geocoder.Geocoder
}

// NewIngestionService creates a new IngestionServiceImpl. The geocoder may
// be nil, in which case shops without coordinates stay unresolved.
func NewIngestionService(
	customerRepo repositories.CustomerRepository,
	shopRepo     repositories.ShopRepository,
	receiptRepo  repositories.ReceiptRepository,
	classifier   *fraud.Classifier,
	geo          geocoder.Geocoder,
) *IngestionServiceImpl {
	return &IngestionServiceImpl{
		customerRepo: customerRepo,
		shopRepo:     shopRepo,
		receiptRepo:  receiptRepo,
		classifier:   classifier,
		geocoder:     geo,
	}
}

// IngestReceipt validates a submission, resolves its customer and shop,
// classifies the location signal and persists the receipt plus aggregate
// updates. Validation failures leave no trace in storage.
func (s *IngestionServiceImpl) IngestReceipt(ctx context.Context, input IngestReceiptInput) (*models.Receipt, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("amount %.2f: %w", input.Amount, models.ErrInvalidAmount)
	}
	phone := strings.TrimSpace(input.CustomerPhone)
	if phone == "" {
		return nil, models.ErrMissingCustomer
	}

	uploadCoords := coordsFromInput("upload", input.UploadLatitude, input.UploadLongitude)
	shopCoords := coordsFromInput("shop", input.ShopLatitude, input.ShopLongitude)

	customer, err := s.customerRepo.FindOrCreate(ctx, phone, strings.TrimSpace(input.CustomerName))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve customer: %w", err)
	}

	receipt := &models.Receipt{
		CustomerID:      customer.ID,
		CustomerPhone:   customer.PhoneNumber,
		ShopName:        strings.TrimSpace(input.ShopName),
		Amount:          input.Amount,
		Currency:        input.Currency,
		Items:           input.Items,
		RawText:         input.RawText,
		UploadLatitude:  input.UploadLatitude,
		UploadLongitude: input.UploadLongitude,
		UploadAddress:   input.UploadAddress,
		ShopAddress:     input.ShopAddress,
	}

	var shop *models.Shop
	if receipt.ShopName != "" {
		shop, err = s.shopRepo.FindOrCreate(ctx, receipt.ShopName, input.ShopAddress, input.ShopLatitude, input.ShopLongitude)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve shop: %w", err)
		}
		receipt.ShopID = &shop.ID
		if shopCoords == nil {
			shopCoords = s.resolveShopCoords(ctx, shop)
		}
	}
	if shopCoords != nil {
		receipt.ShopLatitude = &shopCoords.Latitude
		receipt.ShopLongitude = &shopCoords.Longitude
	}

	verdict, err := s.classifier.Classify(shopCoords, uploadCoords)
	if err != nil {
		// Bad coordinates degrade to the neutral verdict; a receipt is
		// always recorded
		slog.Warn("Classification failed, holding receipt for review", "phone", maskPhone(phone), "error", err)
		verdict = fraud.InsufficientDataVerdict()
	}
	receipt.FraudFlag = verdict.Flag
	receipt.FraudScore = verdict.Score
	receipt.FraudReason = verdict.Reason
	receipt.DistanceKm = verdict.DistanceKm

	receipt.Status = models.ReceiptStatusProcessed
	if verdict.Flag == models.FraudFlagFlagged {
		receipt.Status = models.ReceiptStatusPendingReview
	}

	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, fmt.Errorf("failed to store receipt: %w", err)
	}

	if err := s.applyAggregates(ctx, receipt, shop); err != nil {
		// Compensate so a half-ingested receipt never enters a draw pool
		if delErr := s.receiptRepo.Delete(ctx, receipt.ID); delErr != nil {
			slog.Error("Failed to compensate receipt after aggregate failure", "receiptId", receipt.ID.Hex(), "error", delErr)
		}
		return nil, err
	}

	if uploadCoords != nil {
		if err := s.customerRepo.UpdateLastLocation(ctx, customer.PhoneNumber, uploadCoords.Latitude, uploadCoords.Longitude); err != nil {
			slog.Warn("Failed to update customer last location", "phone", maskPhone(customer.PhoneNumber), "error", err)
		}
	}

	slog.Info("Receipt ingested",
		"receiptId", receipt.ID.Hex(),
		"phone", maskPhone(customer.PhoneNumber),
		"shop", receipt.ShopName,
		"amount", receipt.Amount,
		"fraudFlag", receipt.FraudFlag,
		"fraudScore", receipt.FraudScore,
		"status", receipt.Status,
	)
	return receipt, nil
}

func (s *IngestionServiceImpl) applyAggregates(ctx context.Context, receipt *models.Receipt, shop *models.Shop) error {
	if err := s.customerRepo.ApplyReceipt(ctx, receipt.CustomerID, 1, receipt.Amount); err != nil {
		return fmt.Errorf("failed to update customer aggregates: %w", err)
	}
	if shop != nil {
		if err := s.shopRepo.ApplyReceipt(ctx, shop.ID, 1, receipt.Amount); err != nil {
			// Roll the customer side back before compensating the receipt
			if rbErr := s.customerRepo.ApplyReceipt(ctx, receipt.CustomerID, -1, -receipt.Amount); rbErr != nil {
				slog.Error("Failed to roll back customer aggregates", "customerId", receipt.CustomerID.Hex(), "error", rbErr)
			}
			return fmt.Errorf("failed to update shop aggregates: %w", err)
		}
	}
	return nil
}

// resolveShopCoords returns the shop's stored coordinates, geocoding and
// backfilling them on first sight when a geocoder is configured. Geocoding
// failures degrade to no coordinates; the classifier handles that.
func (s *IngestionServiceImpl) resolveShopCoords(ctx context.Context, shop *models.Shop) *geo.Coordinates {
	if shop.Latitude != nil && shop.Longitude != nil {
		return &geo.Coordinates{Latitude: *shop.Latitude, Longitude: *shop.Longitude}
	}
	if s.geocoder == nil {
		return nil
	}
	coords, err := s.geocoder.Geocode(ctx, shop.Name, shop.Address)
	if err != nil {
		slog.Warn("Failed to geocode shop", "shop", shop.Name, "error", err)
		return nil
	}
	if err := s.shopRepo.UpdateCoordinates(ctx, shop.ID, coords.Latitude, coords.Longitude); err != nil {
		slog.Warn("Failed to backfill shop coordinates", "shop", shop.Name, "error", err)
	}
	return coords
}

// coordsFromInput pairs up an optional coordinate. Out-of-range values are
// dropped so the classifier sees them as missing data.
func coordsFromInput(kind string, lat, lon *float64) *geo.Coordinates {
	if lat == nil || lon == nil {
		return nil
	}
	coords := &geo.Coordinates{Latitude: *lat, Longitude: *lon}
	if err := coords.Validate(); err != nil {
		slog.Warn("Ignoring invalid coordinates", "kind", kind, "error", err)
		return nil
	}
	return coords
}

// maskPhone hides the middle digits of a phone number for logging
func maskPhone(phone string) string {
	if len(phone) < 7 {
		return "****"
	}
	return phone[:3] + "****" + phone[len(phone)-3:]
}
