package gemini

import "cryptobridge/models"

// mapStatus derives the unified status from Gemini's flags. Cancellation
// wins over liveness.
func mapStatus(isCancelled, isLive bool) models.Status {
	switch {
	case isCancelled:
		return models.StatusCanceled
	case !isLive:
		return models.StatusClosed
	default:
		return models.StatusOpen
	}
}
