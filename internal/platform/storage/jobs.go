package storage

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"photopipe-server-go/internal/platform/errors"
)

// Job statuses.
const (
	JobStatusPending   = "pending"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// JobRecord is the persisted history of one pipeline run.
type JobRecord struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	Style      string         `gorm:"size:64;index" json:"style"`
	Status     string         `gorm:"size:16;index" json:"status"`
	Backend    string         `gorm:"size:64" json:"backend,omitempty"`
	ErrorKind  string         `gorm:"size:32" json:"error_kind,omitempty"`
	Error      string         `json:"error,omitempty"`
	OutputKey  string         `gorm:"size:128" json:"output_key,omitempty"`
	OutputURL  string         `gorm:"size:256" json:"output_url,omitempty"`
	Stages     datatypes.JSON `json:"stages,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// JobRepository stores and queries pipeline job history.
type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *JobRecord) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "storage.jobs", "create job record", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *JobRecord) error {
	if err := r.db.WithContext(ctx).Save(job).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "storage.jobs", "update job record", err)
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*JobRecord, error) {
	var job JobRecord
	err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.KindStorage, "storage.jobs", "job not found: "+id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.jobs", "load job record", err)
	}
	return &job, nil
}

// Recent returns up to limit jobs, newest first.
func (r *JobRepository) Recent(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var jobs []JobRecord
	err := r.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&jobs).Error
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "storage.jobs", "list job records", err)
	}
	return jobs, nil
}
