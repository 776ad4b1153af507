//go:build ignore

package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"notes-portal/internal/model"

	"github.com/shopspring/decimal"
)

// generateSampleOffers writes a gzipped JSON-lines offer file for the
// importer. The last entry reuses WELCOME10 and is skipped as a duplicate.
func main() {
	dataDir := "data/offers"

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Hour)
	nextMonth := now.AddDate(0, 1, 0)

	offers := []model.OfferRequest{
		{
			Title:             "Welcome discount",
			Kind:              model.KindPercentage,
			PromoCode:         "WELCOME10",
			DiscountValue:     nullDecimal(10),
			MaxDiscountCap:    nullDecimal(200),
			UserEligibility:   model.EligibleNewUsers,
			PerUserUsageLimit: intPtr(1),
			PriorityOrder:     10,
		},
		{
			Title:              "Semester notes bundle",
			Kind:               model.KindFixedAmount,
			PromoCode:          "NOTES50",
			DiscountValue:      nullDecimal(50),
			MinPurchaseAmount:  nullDecimal(300),
			EligibleCategories: []string{"engineering", "medicine"},
			ActiveFrom:         &now,
			ActiveUntil:        &nextMonth,
			TotalUsageLimit:    intPtr(500),
			PriorityOrder:      5,
		},
		{
			Title:         "Campus ambassador codes",
			Kind:          model.KindPercentage,
			PromoCode:     "CAMPUS15",
			DiscountValue: nullDecimal(15),
			AdditionalCodes: []model.AdditionalCode{
				{Code: "CAMPUS-DELHI", Status: model.StatusActive, TotalUsageLimit: intPtr(100)},
				{Code: "CAMPUS-PUNE", Status: model.StatusActive, TotalUsageLimit: intPtr(100)},
			},
		},
		{
			Title:         "Gift voucher",
			Kind:          model.KindVoucher,
			VoucherCode:   "GIFT-2026-0001",
			DiscountValue: nullDecimal(1000),
			Balance:       nullDecimal(1000),
		},
		{
			Title:         "One-time apology credit",
			Kind:          model.KindFixedAmount,
			PromoCode:     "SORRY100",
			DiscountValue: nullDecimal(100),
			IsSingleUse:   true,
		},
		{
			Title:         "Welcome discount (duplicate)",
			Kind:          model.KindPercentage,
			PromoCode:     "welcome10",
			DiscountValue: nullDecimal(10),
		},
	}

	filePath := filepath.Join(dataDir, "offers.jsonl.gz")
	if err := createOfferFile(filePath, offers); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d offers\n", filePath, len(offers))
	fmt.Println("\nImport with: go run ./cmd/importer " + filePath)
}

func createOfferFile(filePath string, offers []model.OfferRequest) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	// Encoder terminates every value with a newline
	encoder := json.NewEncoder(gzipWriter)
	for i := range offers {
		if err := encoder.Encode(&offers[i]); err != nil {
			return fmt.Errorf("failed to write offer: %w", err)
		}
	}

	return nil
}

func nullDecimal(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func intPtr(v int) *int { return &v }
