package order

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
)

// NumberGenerator hands out human-readable order numbers.
type NumberGenerator interface {
	Next() (string, error)
}

type uuidNumberGenerator struct {
	now func() time.Time
}

// NewNumberGenerator returns numbers shaped like ORD20250416-1a2b3c4d.
func NewNumberGenerator() NumberGenerator {
	return &uuidNumberGenerator{now: time.Now}
}

func (g *uuidNumberGenerator) Next() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("order: failed to generate order number: %w", err)
	}
	return fmt.Sprintf("ORD%s-%s", g.now().UTC().Format("20060102"), hex.EncodeToString(id.Bytes()[:4])), nil
}
