package conversation

import (
	"context"
	"time"

	"tangent-server/internal/infrastructure/logger"
	"tangent-server/internal/utils/apperrors"
)

// Janitor sweeps conversations left without a root branch by interrupted
// creates (see BranchService.CreateConversation).
type Janitor struct {
	convRepo ConversationRepository
	minAge   time.Duration
}

func NewJanitor(convRepo ConversationRepository, minAge time.Duration) *Janitor {
	return &Janitor{convRepo: convRepo, minAge: minAge}
}

// SweepOrphans deletes branchless conversations older than the configured
// minimum age and returns the number removed.
func (j *Janitor) SweepOrphans(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-j.minAge)
	orphans, err := j.convRepo.FindBranchless(ctx, cutoff)
	if err != nil {
		return 0, apperrors.Wrap(ctx, apperrors.LayerDomain, err, "failed to find orphaned conversations")
	}

	log := logger.GetLogger()
	removed := 0
	for _, conv := range orphans {
		if err := j.convRepo.Delete(ctx, conv.ID); err != nil {
			log.Error().Err(err).
				Str("conversation_id", conv.ID.String()).
				Msg("failed to delete orphaned conversation")
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Msg("swept orphaned conversations")
	}
	return removed, nil
}
