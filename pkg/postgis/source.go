package postgis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kass/go-geo-audit/pkg/models"
)

func normalizeID(id string) string {
	return strings.TrimSpace(id)
}

// Source opens a connection per load, for callers that only read ground
// truth once per run
type Source struct {
	Config Config
	Logger *zap.Logger
}

// TestPoints connects, reads every test point and disconnects
func (src Source) TestPoints(ctx context.Context) ([]models.TestPointRow, error) {
	store, err := Open(ctx, src.Config, src.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ground truth database: %w", err)
	}
	defer store.Close()
	return store.TestPoints(ctx)
}
