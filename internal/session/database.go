package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/simp-lee/hotelweb/internal/domain"
)

// DatabaseStore keeps sessions in a SQL table through GORM.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseStore migrates the sessions table and returns a store over db.
func NewDatabaseStore(db *gorm.DB) (*DatabaseStore, error) {
	if err := db.AutoMigrate(&domain.Session{}); err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to migrate sessions table", err)
	}
	return &DatabaseStore{db: db, now: time.Now}, nil
}

func (d *DatabaseStore) Save(ctx context.Context, s *domain.Session) error {
	if s.Expired(d.now()) {
		return domain.NewAppError(domain.CodeValidation, "session already expired", nil)
	}
	if err := d.db.WithContext(ctx).Save(s).Error; err != nil {
		return mapError(err)
	}
	return nil
}

func (d *DatabaseStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	err := d.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, d.now()).
		First(&s).Error
	if err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

func (d *DatabaseStore) Delete(ctx context.Context, id string) error {
	if err := d.db.WithContext(ctx).Delete(&domain.Session{}, "id = ?", id).Error; err != nil {
		return mapError(err)
	}
	return nil
}

// DeleteExpired removes sessions past their expiry and reports how many.
func (d *DatabaseStore) DeleteExpired(ctx context.Context) (int64, error) {
	res := d.db.WithContext(ctx).Where("expires_at <= ?", d.now()).Delete(&domain.Session{})
	if res.Error != nil {
		return 0, mapError(res.Error)
	}
	return res.RowsAffected, nil
}

func (d *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (d *DatabaseStore) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return domain.NewAppError(domain.CodeInternal, "session database error", err)
}
