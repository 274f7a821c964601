package bitstamp

import "cryptobridge/models"

// mapStatus converts Bitstamp's order status. A missing status means the
// order is still working; unrecognised values pass through unchanged.
func mapStatus(native *string) models.Status {
	if native == nil {
		return models.StatusOpen
	}
	switch *native {
	case "Queue", "Open":
		return models.StatusOpen
	case "Finished":
		return models.StatusClosed
	default:
		return models.Status(*native)
	}
}
