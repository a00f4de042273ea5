package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"attestd/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errDBUnavailable = errors.New("database unavailable")

// Open connects to postgres and migrates the attestation schema.
func Open(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := conn.AutoMigrate(&AttestationModel{}); err != nil {
		return nil, err
	}
	return conn, nil
}

type AttestationRepository struct {
	db *gorm.DB
}

func NewAttestationRepository(db *gorm.DB) *AttestationRepository {
	return &AttestationRepository{db: db}
}

func (r *AttestationRepository) Record(ctx context.Context, attestation domain.Attestation) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if attestation.ID == "" {
		return errors.New("attestation id is required")
	}
	envelopeJSON, err := json.Marshal(attestation.Envelope)
	if err != nil {
		return err
	}
	statementJSON, err := json.Marshal(attestation.Statement)
	if err != nil {
		return err
	}
	createdAt := attestation.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	model := AttestationModel{
		ID:            attestation.ID,
		KeyID:         attestation.KeyID,
		PayloadType:   attestation.PayloadType,
		SubjectName:   attestation.SubjectName,
		SubjectSHA256: attestation.SubjectSHA256,
		EnvelopeJSON:  envelopeJSON,
		StatementJSON: statementJSON,
		CreatedAt:     createdAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
}

func (r *AttestationRepository) ListBySubjectSHA256(ctx context.Context, digest string) ([]domain.Attestation, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []AttestationModel
	err := r.db.WithContext(ctx).
		Where("subject_sha256 = ?", digest).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Attestation, 0, len(models))
	for _, model := range models {
		attestation, err := attestationFromModel(model)
		if err != nil {
			return nil, err
		}
		out = append(out, attestation)
	}
	return out, nil
}

func (r *AttestationRepository) GetByID(ctx context.Context, id string) (domain.Attestation, error) {
	if r.db == nil {
		return domain.Attestation{}, errDBUnavailable
	}
	var model AttestationModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Attestation{}, domain.ErrNotFound
		}
		return domain.Attestation{}, err
	}
	return attestationFromModel(model)
}

func attestationFromModel(model AttestationModel) (domain.Attestation, error) {
	var envelope domain.Envelope
	if err := json.Unmarshal(model.EnvelopeJSON, &envelope); err != nil {
		return domain.Attestation{}, err
	}
	var statement domain.Statement
	if err := json.Unmarshal(model.StatementJSON, &statement); err != nil {
		return domain.Attestation{}, err
	}
	return domain.Attestation{
		ID:            model.ID,
		KeyID:         model.KeyID,
		PayloadType:   model.PayloadType,
		SubjectName:   model.SubjectName,
		SubjectSHA256: model.SubjectSHA256,
		Envelope:      envelope,
		Statement:     statement,
		CreatedAt:     model.CreatedAt,
	}, nil
}
