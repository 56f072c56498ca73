package services

import (
	"context"
	"time"

	"github.com/adilind/coffee-shop-api/models"
	"github.com/adilind/coffee-shop-api/stores"
)

var knownActivityTypes = map[models.ActivityType]bool{
	models.ActivityLogin:          true,
	models.ActivityLogout:         true,
	models.ActivityRegister:       true,
	models.ActivityAddToCart:      true,
	models.ActivityUpdateCart:     true,
	models.ActivityRemoveFromCart: true,
	models.ActivityClearCart:      true,
	models.ActivityCheckout:       true,
	models.ActivityPaymentSuccess: true,
	models.ActivityPaymentFailure: true,
}

type ActivityService struct {
	store stores.ActivityStore
}

func NewActivityService(store stores.ActivityStore) *ActivityService {
	return &ActivityService{store: store}
}

// Record appends one audit entry. The log is append-only; nothing here ever
// mutates or deletes existing entries.
func (s *ActivityService) Record(ctx context.Context, id Identity, activityType models.ActivityType, details models.ActivityDetails) error {
	if id.UserID == "" || !knownActivityTypes[activityType] {
		return Validation(CodeInvalidActivity, "malformed activity entry")
	}
	entry := models.ActivityLog{
		UserID:        id.UserID,
		Username:      id.Username,
		ActivityType:  activityType,
		Details:       details,
		Timestamp:     time.Now(),
		SourceAddress: id.SourceAddr,
	}
	if err := s.store.Insert(ctx, &entry); err != nil {
		return Upstream("failed to record activity", err)
	}
	return nil
}

// Query returns entries newest first. usernamePrefix is a case-sensitive
// prefix match; nil bounds mean unbounded.
func (s *ActivityService) Query(ctx context.Context, usernamePrefix string, from, to *time.Time) ([]models.ActivityLog, error) {
	entries, err := s.store.Query(ctx, stores.ActivityFilter{
		UsernamePrefix: usernamePrefix,
		From:           from,
		To:             to,
	})
	if err != nil {
		return nil, Upstream("failed to query activity log", err)
	}
	return entries, nil
}
