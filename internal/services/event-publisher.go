package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/SundayYogurt/trainer_service/internal/dto"
	"github.com/SundayYogurt/trainer_service/internal/interfaces"
)

// PublishApprovedTo forwards trainer_approved to the external events topic.
func PublishApprovedTo(producer interfaces.ProducerHandler) TrainerApprovedHandler {
	return func(ctx context.Context, ev TrainerApproved) error {
		payload, err := json.Marshal(dto.TrainerApprovedEvent{
			TrainerID:  ev.TrainerID,
			IdentityID: ev.IdentityID,
			Slug:       ev.Slug,
			ApprovedAt: ev.ApprovedAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		return producer.PublishMessage(ctx, []byte(strconv.FormatUint(uint64(ev.TrainerID), 10)), payload)
	}
}
