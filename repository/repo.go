package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"voicebank/constant"
	"voicebank/entities"
	"voicebank/errs"
)

// Postgres constraint names the schema uses for the recording invariants.
const (
	constraintRecordingsName       = "recordings_name"
	constraintRecordingsPrimaryKey = "recordings_primary_key"
	constraintRecordingsNotParent  = "recordings_id_not_parent"
)

// RecordingRepository owns all persisted Recording and token state. Every
// multi-step operation runs inside one transaction; exactly-once token
// consumption is the transaction's property, not an application lock.
type RecordingRepository interface {
	Ping(ctx context.Context) error
	IssueToken(ctx context.Context, parentID uuid.UUID) (*entities.RecordingToken, error)
	PeekToken(ctx context.Context, tokenID uuid.UUID) (*entities.RecordingToken, error)
	CreateRecording(ctx context.Context, rec *entities.NewRecording) (*entities.CreatedRecording, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entities.RecordingDetail, error)
	FindByManagementToken(ctx context.Context, key uuid.UUID) (*entities.RecordingDetail, error)
	Children(ctx context.Context, parentID uuid.UUID) ([]entities.ChildRecording, error)
	Count(ctx context.Context) (int64, error)
	SampleRandom(ctx context.Context, n int) ([]entities.PartialRecording, error)
	List(ctx context.Context, includeDeleted bool, limit, offset int) ([]entities.Recording, error)
	LookupTables(ctx context.Context) (*entities.LookupTables, error)
	SetLookupEnabled(ctx context.Context, table constant.LookupTable, id int16, enabled bool) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) RecordingRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) conn(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

func (r *repo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *repo) IssueToken(ctx context.Context, parentID uuid.UUID) (*entities.RecordingToken, error) {
	token := &entities.RecordingToken{
		ID:       uuid.New(),
		ParentID: parentID,
	}

	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&entities.Recording{}).
			Where("id = ? AND deleted_at IS NULL", parentID).
			Count(&count).Error
		if err != nil {
			return translateError(err)
		}
		if count == 0 {
			return fmt.Errorf("%w: recording %s", errs.ErrNotFound, parentID)
		}

		return translateError(tx.Create(token).Error)
	})
	if err != nil {
		return nil, err
	}

	return token, nil
}

func (r *repo) PeekToken(ctx context.Context, tokenID uuid.UUID) (*entities.RecordingToken, error) {
	token := &entities.RecordingToken{}
	err := r.conn(ctx).First(token, "id = ?", tokenID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", errs.ErrTokenNotFound, tokenID)
		}
		return nil, translateError(err)
	}
	return token, nil
}

// CreateRecording runs the whole creation as one transaction: consume the
// token, insert the recording row, create the management row, issue the
// child tokens. Any failure rolls everything back and leaves the token
// usable for retry.
func (r *repo) CreateRecording(ctx context.Context, rec *entities.NewRecording) (*entities.CreatedRecording, error) {
	created := &entities.CreatedRecording{}

	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		parentID, err := consumeToken(tx, rec.TokenID)
		if err != nil {
			return err
		}

		id := rec.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		if id == parentID {
			return fmt.Errorf("%w: %s", errs.ErrSelfParent, id)
		}

		now := time.Now().UTC()
		row := &entities.Recording{
			ID:         id,
			URL:        &rec.URL,
			MimeTypeID: &rec.MimeTypeID,
			CategoryID: rec.CategoryID,
			ParentID:   &parentID,
			Name:       &rec.Name,
			AgeID:      rec.AgeID,
			GenderID:   rec.GenderID,
			Location:   rec.Location,
			Occupation: rec.Occupation,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Create(row).Error; err != nil {
			return translateError(err)
		}

		management := &entities.RecordingManagement{
			ID:          uuid.New(),
			RecordingID: id,
			Email:       rec.Email,
			CreatedAt:   now,
		}
		if err := tx.Create(management).Error; err != nil {
			return translateError(err)
		}

		tokens := make([]uuid.UUID, 0, rec.ChildTokens)
		for i := 0; i < rec.ChildTokens; i++ {
			child := &entities.RecordingToken{ID: uuid.New(), ParentID: id}
			if err := tx.Create(child).Error; err != nil {
				return translateError(err)
			}
			tokens = append(tokens, child.ID)
		}

		created.ID = id
		created.ParentID = parentID
		created.CreatedAt = now
		created.UpdatedAt = now
		created.Tokens = tokens
		created.ManagementKey = management.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// consumeToken atomically deletes the token row and returns its parent.
// Under concurrent contention exactly one transaction's delete matches;
// all others observe a missing token.
func consumeToken(tx *gorm.DB, tokenID uuid.UUID) (uuid.UUID, error) {
	var row struct {
		ParentID uuid.UUID `gorm:"column:parent_id"`
	}

	res := tx.Raw(
		`DELETE FROM recording_tokens
		 WHERE id = ? AND (valid_from IS NULL OR valid_from <= now())
		 RETURNING parent_id`,
		tokenID,
	).Scan(&row)
	if res.Error != nil {
		return uuid.Nil, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&entities.RecordingToken{}).Where("id = ?", tokenID).Count(&count).Error; err != nil {
			return uuid.Nil, translateError(err)
		}
		if count > 0 {
			return uuid.Nil, fmt.Errorf("%w: %s", errs.ErrTokenNotYetValid, tokenID)
		}
		return uuid.Nil, fmt.Errorf("%w: %s", errs.ErrTokenNotFound, tokenID)
	}

	return row.ParentID, nil
}

// SoftDelete marks the row deleted and clears name and the other PII
// columns while preserving category, parent and timestamps. Deleting an
// already-deleted recording is a no-op success.
func (r *repo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`UPDATE recordings
			 SET deleted_at = now(), name = NULL, location = NULL, occupation = NULL
			 WHERE id = ? AND deleted_at IS NULL`,
			id,
		)
		if res.Error != nil {
			return translateError(res.Error)
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var count int64
		if err := tx.Model(&entities.Recording{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return translateError(err)
		}
		if count == 0 {
			return fmt.Errorf("%w: recording %s", errs.ErrNotFound, id)
		}
		return nil
	})
}

const detailQuery = `
SELECT r.id, r.url, r.mime_type_id, r.category_id, r.parent_id, r.name,
       r.age_id, r.gender_id, r.location, r.occupation,
       r.created_at, r.updated_at, r.deleted_at,
       m.essence AS mime_essence,
       c.label AS category_label,
       a.label AS age_label,
       g.label AS gender_label
FROM recordings r
LEFT JOIN mime_types m ON m.id = r.mime_type_id
LEFT JOIN categories c ON c.id = r.category_id
LEFT JOIN ages a ON a.id = r.age_id
LEFT JOIN genders g ON g.id = r.gender_id
`

func (r *repo) FindByID(ctx context.Context, id uuid.UUID) (*entities.RecordingDetail, error) {
	detail := &entities.RecordingDetail{}
	res := r.conn(ctx).Raw(detailQuery+"WHERE r.id = ?", id).Scan(detail)
	if res.Error != nil {
		return nil, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: recording %s", errs.ErrNotFound, id)
	}
	return detail, nil
}

func (r *repo) FindByManagementToken(ctx context.Context, key uuid.UUID) (*entities.RecordingDetail, error) {
	detail := &entities.RecordingDetail{}
	res := r.conn(ctx).Raw(
		detailQuery+`JOIN recording_management k ON k.recording_id = r.id WHERE k.id = ?`,
		key,
	).Scan(detail)
	if res.Error != nil {
		return nil, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: management key %s", errs.ErrNotFound, key)
	}
	return detail, nil
}

func (r *repo) Children(ctx context.Context, parentID uuid.UUID) ([]entities.ChildRecording, error) {
	var children []entities.ChildRecording
	err := r.conn(ctx).
		Model(&entities.Recording{}).
		Select("id", "name").
		Where("parent_id = ? AND deleted_at IS NULL", parentID).
		Order("created_at ASC").
		Find(&children).Error
	if err != nil {
		return nil, translateError(err)
	}
	return children, nil
}

func (r *repo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).
		Model(&entities.Recording{}).
		Where("deleted_at IS NULL").
		Count(&count).Error
	if err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// SampleRandom reads up to n non-deleted recordings in randomized order.
// The full-table randomized read is a known scaling risk, kept until a
// design change replaces it.
func (r *repo) SampleRandom(ctx context.Context, n int) ([]entities.PartialRecording, error) {
	var recordings []entities.PartialRecording
	err := r.conn(ctx).Raw(
		`SELECT id, name, location FROM recordings
		 WHERE deleted_at IS NULL
		 ORDER BY random()
		 LIMIT ?`,
		n,
	).Scan(&recordings).Error
	if err != nil {
		return nil, translateError(err)
	}
	return recordings, nil
}

func (r *repo) List(ctx context.Context, includeDeleted bool, limit, offset int) ([]entities.Recording, error) {
	var recordings []entities.Recording
	q := r.conn(ctx).Model(&entities.Recording{}).Order("created_at DESC")
	if !includeDeleted {
		q = q.Where("deleted_at IS NULL")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&recordings).Error; err != nil {
		return nil, translateError(err)
	}
	return recordings, nil
}

// LookupTables returns every reference row, enabled and disabled, in one
// consistent read for the lookup cache.
func (r *repo) LookupTables(ctx context.Context) (*entities.LookupTables, error) {
	tables := &entities.LookupTables{}

	err := r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Category{}).Order("id ASC").Find(&tables.Categories).Error; err != nil {
			return err
		}
		if err := tx.Model(&entities.Age{}).Order("id ASC").Find(&tables.Ages).Error; err != nil {
			return err
		}
		if err := tx.Model(&entities.Gender{}).Order("id ASC").Find(&tables.Genders).Error; err != nil {
			return err
		}
		return tx.Model(&entities.MimeType{}).Order("id ASC").Find(&tables.MimeTypes).Error
	})
	if err != nil {
		return nil, translateError(err)
	}

	return tables, nil
}

func (r *repo) SetLookupEnabled(ctx context.Context, table constant.LookupTable, id int16, enabled bool) error {
	switch table {
	case constant.LookupCategories, constant.LookupAges, constant.LookupGenders, constant.LookupMimeTypes:
	default:
		return fmt.Errorf("%w: unknown lookup table %q", errs.ErrNotFound, table)
	}

	res := r.conn(ctx).Table(table.String()).Where("id = ?", id).Update("enabled", enabled)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s %d", errs.ErrNotFound, table, id)
	}
	return nil
}

// translateError maps driver-level failures onto the domain taxonomy so
// callers never match on Postgres error codes.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == constraintRecordingsName:
			return fmt.Errorf("%w: %v", errs.ErrNameTaken, err)
		case pgErr.Code == pgerrcode.CheckViolation && pgErr.ConstraintName == constraintRecordingsNotParent:
			return fmt.Errorf("%w: %v", errs.ErrSelfParent, err)
		case pgerrcode.IsIntegrityConstraintViolation(pgErr.Code):
			return fmt.Errorf("%w: %v", errs.ErrConstraint, err)
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", errs.ErrNotFound, err)
	}

	return err
}
