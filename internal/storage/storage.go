package storage

import "stakewatch/internal/model"

// Storage defines a sink for classified activity records.
type Storage interface {
	PutActivityBatch(records []model.ActivityRecord) error
}
