package groundtruth

import (
	"encoding/gob"
	"fmt"
	"os"
	"time"

	"github.com/kass/go-geo-audit/pkg/models"
)

// Snapshot is the serializable form of a store
type Snapshot struct {
	Points  []models.GroundTruthPoint `json:"points"`
	Count   int                       `json:"count"`
	SavedAt time.Time                 `json:"savedAt"`
}

// SaveToFile saves the store's points to a binary file
func (s *Store) SaveToFile(filename string) error {
	data := Snapshot{
		Points:  s.Points(),
		Count:   s.Len(),
		SavedAt: time.Now().UTC(),
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return nil
}

// LoadFromFile loads a store from a binary file written by SaveToFile
func LoadFromFile(filename string) (*Store, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var data Snapshot
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}

	if data.Count != len(data.Points) {
		return nil, fmt.Errorf("corrupt snapshot: header count %d, found %d points", data.Count, len(data.Points))
	}

	points := make(map[string]models.GroundTruthPoint, len(data.Points))
	for _, p := range data.Points {
		points[p.PointID] = p
	}
	return newStore(points), nil
}
