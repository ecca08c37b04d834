package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Bijush/Avoter/models"
)

// recordRow is the relational shape of a record. Attachments live in a
// jsonb column so the list stays a single atomic value per row.
type recordRow struct {
	ID           string         `gorm:"primaryKey;size:64"`
	Name         string         `gorm:"size:255;index"`
	Epic         string         `gorm:"size:64"`
	PS           string         `gorm:"column:ps;size:64"`
	OldHouse     string         `gorm:"size:255"`
	NewHouse     string         `gorm:"size:255"`
	Payment      float64        `gorm:"not null;default:0"`
	Paid         string         `gorm:"size:32"`
	Complete     string         `gorm:"size:32"`
	WifeName     string         `gorm:"size:255"`
	WifeEpic     string         `gorm:"size:64"`
	WifePayment  float64        `gorm:"not null;default:0"`
	WifePaid     string         `gorm:"size:32"`
	WifeComplete string         `gorm:"size:32"`
	Remark       string         `gorm:"type:text"`
	Attachments  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    string         `gorm:"size:32"`
	UpdatedAt    string         `gorm:"size:32"`
}

func (recordRow) TableName() string { return "records" }

// PostgresStore persists records in a Postgres table through GORM.
type PostgresStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// OpenPostgres connects using the given DSN and runs the schema migration.
// Migration failures are logged and tolerated so a restricted role can still
// serve an existing table.
func OpenPostgres(dsn string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&recordRow{}); err != nil {
		logger.Warn("records migration failed", zap.Error(err))
	}
	return &PostgresStore{db: db, log: logger}, nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) List(ctx context.Context) ([]models.Record, error) {
	var rows []recordRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		// The table may not exist yet on a fresh database; try to
		// bring it up so the next listing succeeds.
		if mErr := s.db.WithContext(ctx).AutoMigrate(&recordRow{}); mErr != nil {
			s.log.Warn("lazy records migration failed", zap.Error(mErr))
		}
		return nil, err
	}
	recs := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.toRecord())
	}
	return recs, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.Record, error) {
	var row recordRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Record{}, ErrNotFound
	}
	if err != nil {
		return models.Record{}, err
	}
	return row.toRecord(), nil
}

func (s *PostgresStore) Create(ctx context.Context, rec models.Record) error {
	row := fromRecord(rec)
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *PostgresStore) Update(ctx context.Context, rec models.Record) error {
	row := fromRecord(rec)
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *PostgresStore) UpdateRemark(ctx context.Context, id, remark string) error {
	return s.db.WithContext(ctx).Model(&recordRow{}).Where("id = ?", id).
		Update("remark", remark).Error
}

func (s *PostgresStore) SetAttachments(ctx context.Context, id string, addrs []string) error {
	return s.db.WithContext(ctx).Model(&recordRow{}).Where("id = ?", id).
		Update("attachments", attachmentsJSON(addrs)).Error
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&recordRow{}).Error
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (row recordRow) toRecord() models.Record {
	var decoded any
	if len(row.Attachments) > 0 {
		_ = json.Unmarshal(row.Attachments, &decoded)
	}
	return models.Record{
		ID:           row.ID,
		Name:         row.Name,
		Epic:         row.Epic,
		PS:           row.PS,
		OldHouse:     row.OldHouse,
		NewHouse:     row.NewHouse,
		Payment:      row.Payment,
		Paid:         row.Paid,
		Complete:     row.Complete,
		WifeName:     row.WifeName,
		WifeEpic:     row.WifeEpic,
		WifePayment:  row.WifePayment,
		WifePaid:     row.WifePaid,
		WifeComplete: row.WifeComplete,
		Remark:       row.Remark,
		Attachments:  models.NormalizeAttachments(decoded),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func fromRecord(rec models.Record) recordRow {
	return recordRow{
		ID:           rec.ID,
		Name:         rec.Name,
		Epic:         rec.Epic,
		PS:           rec.PS,
		OldHouse:     rec.OldHouse,
		NewHouse:     rec.NewHouse,
		Payment:      rec.Payment,
		Paid:         rec.Paid,
		Complete:     rec.Complete,
		WifeName:     rec.WifeName,
		WifeEpic:     rec.WifeEpic,
		WifePayment:  rec.WifePayment,
		WifePaid:     rec.WifePaid,
		WifeComplete: rec.WifeComplete,
		Remark:       rec.Remark,
		Attachments:  attachmentsJSON(rec.Attachments),
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

// attachmentsJSON encodes an address list for the jsonb column, writing an
// empty array rather than SQL NULL.
func attachmentsJSON(addrs []string) datatypes.JSON {
	if addrs == nil {
		addrs = []string{}
	}
	b, _ := json.Marshal(addrs)
	return datatypes.JSON(b)
}
