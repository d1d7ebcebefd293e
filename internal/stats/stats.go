package stats

import (
	"math"
	"time"

	"github.com/rm-hull/telstra-messaging-api/internal/models"
)

func Derive(records []models.MessageRecord) *models.DeliveryStatistics {
	stats := &models.DeliveryStatistics{
		Total:       len(records),
		ByKind:      make(map[string]int),
		ByStatus:    make(map[string]int),
		ByRecipient: make(map[string]int),
	}

	var lastSent time.Time
	for _, record := range records {
		stats.ByKind[record.Kind]++
		stats.ByStatus[record.Status]++
		stats.ByRecipient[record.Recipient]++

		if record.Status == models.StatusSent && record.CreatedAt.After(lastSent) {
			lastSent = record.CreatedAt
		}
	}

	if stats.Total > 0 {
		rate := float64(stats.ByStatus[models.StatusSent]) / float64(stats.Total)
		stats.SuccessRate = math.Round(rate*1000) / 1000
	}
	if !lastSent.IsZero() {
		stats.LastSent = &lastSent
	}

	return stats
}
