package app

import "github.com/google/uuid"

// generateID produces a random identifier.
// Isolated here so the ID strategy can evolve independently.
func generateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// generateInvoiceID produces a short invoice number in the console's
// "inv_" format.
func generateInvoiceID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return "inv_" + id.String()[:8], nil
}
