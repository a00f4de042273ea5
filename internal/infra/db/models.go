package db

import "time"

type AttestationModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	KeyID         string    `gorm:"column:keyid;index;not null"`
	PayloadType   string    `gorm:"not null"`
	SubjectName   string    `gorm:"not null"`
	SubjectSHA256 string    `gorm:"column:subject_sha256;index;not null"`
	EnvelopeJSON  []byte    `gorm:"type:jsonb;not null"`
	StatementJSON []byte    `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (AttestationModel) TableName() string {
	return "attestations"
}
