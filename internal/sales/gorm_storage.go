package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// saleRecord is the row layout of the ventas table.
type saleRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Fecha      time.Time `gorm:"type:date;not null"`
	Cliente    string    `gorm:"type:varchar(150);not null"`
	Familia    *string   `gorm:"type:varchar(100)"`
	Especie    string    `gorm:"type:varchar(100);not null"`
	Cantidad   float64   `gorm:"type:double precision;not null"`
	Precio     float64   `gorm:"type:double precision;not null"`
	TotalVenta float64   `gorm:"type:double precision;not null"`
	Notas      *string   `gorm:"type:text"`
}

func (saleRecord) TableName() string {
	return "ventas"
}

func toRecord(s *Sale) saleRecord {
	return saleRecord{
		ID:         s.ID,
		Fecha:      s.Date,
		Cliente:    s.Client,
		Familia:    s.Family,
		Especie:    s.Species,
		Cantidad:   s.Quantity,
		Precio:     s.UnitPrice,
		TotalVenta: s.Total,
		Notas:      s.Notes,
	}
}

func (r *saleRecord) toSale() *Sale {
	return &Sale{
		ID:        r.ID,
		Date:      r.Fecha,
		Client:    r.Cliente,
		Family:    r.Familia,
		Species:   r.Especie,
		Quantity:  r.Cantidad,
		UnitPrice: r.Precio,
		Total:     r.TotalVenta,
		Notes:     r.Notas,
	}
}

var _ Storage = (*GormStorage)(nil)

// GormStorage persists sales in a relational table through gorm.
type GormStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStorage creates a storage backed by db.
func NewGormStorage(db *gorm.DB, logger *zap.Logger) *GormStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormStorage{db: db, logger: logger}
}

// Migrate creates the ventas table if it does not exist. Safe to call on every start.
func (g *GormStorage) Migrate(ctx context.Context) error {
	if err := g.db.WithContext(ctx).AutoMigrate(&saleRecord{}); err != nil {
		return fmt.Errorf("migrate ventas: %w", err)
	}
	return nil
}

// Save inserts the sale in its own transaction. Nothing is persisted on error.
func (g *GormStorage) Save(ctx context.Context, sale *Sale) error {
	if sale == nil {
		return ErrNilSale
	}

	rec := toRecord(sale)
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rec).Error
	})
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if code := sqlState(err); code != "" {
			fields = append(fields, zap.String("sqlstate", code), zap.Bool("not_null_violation", code == notNullViolation))
		}
		g.logger.Error("insert sale rolled back", fields...)
		return fmt.Errorf("save sale: %w", err)
	}

	sale.ID = rec.ID
	return nil
}

// GetAll returns every sale, most recent date first and newest id first within a date.
func (g *GormStorage) GetAll(ctx context.Context) ([]*Sale, error) {
	var records []saleRecord
	err := g.db.WithContext(ctx).
		Order("fecha DESC").
		Order("id DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	out := make([]*Sale, 0, len(records))
	for i := range records {
		out = append(out, records[i].toSale())
	}
	return out, nil
}

// Ping checks that the database is reachable.
func (g *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

const notNullViolation = "23502"

// sqlState extracts the Postgres error code, if any.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
