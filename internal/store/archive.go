package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ReadingRecord is a reading mirrored into the database archive.
// The CSV log stays canonical; the archive exists so deployments can
// query history with SQL instead of re-parsing the flat file.
type ReadingRecord struct {
	Timestamp    time.Time `gorm:"index:idx_reading_timestamp;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	WaterLevelCM float64
	TemperatureC float64
	HumidityPct  float64
	DangerLevel  *int
	RainLevel    int
	ID           uint `gorm:"primaryKey"`
}

// TableName specifies the table name for ReadingRecord model.
func (ReadingRecord) TableName() string {
	return "readings"
}

// Archive mirrors appended readings to PostgreSQL.
type Archive struct {
	db     *gorm.DB
	logger *slog.Logger
}

// ArchiveConfig holds the database configuration for the archive.
type ArchiveConfig struct {
	Logger   *slog.Logger
	Host     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	Port     int
}

// OpenArchive connects to PostgreSQL and runs migrations.
func OpenArchive(cfg *ArchiveConfig) (*Archive, error) {
	if cfg == nil {
		return nil, errors.New("archive config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	cfg.Logger.Info("connecting to archive database",
		"host", cfg.Host,
		"port", cfg.Port,
		"dbname", cfg.DBName,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Use slog instead of GORM's logger
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.AutoMigrate(&ReadingRecord{}); err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}

	cfg.Logger.Info("archive database ready")

	return &Archive{db: db, logger: cfg.Logger}, nil
}

// Save mirrors one reading to the archive.
func (a *Archive) Save(ctx context.Context, r Reading) error {
	record := &ReadingRecord{
		Timestamp:    r.Time(),
		WaterLevelCM: r.WaterLevelCM,
		TemperatureC: r.TemperatureC,
		HumidityPct:  r.HumidityPct,
		DangerLevel:  r.DangerLevel,
		RainLevel:    r.RainLevel,
	}

	if err := a.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to archive reading: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}

	sqlDB, err := a.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	a.logger.Info("closing archive database connection")
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
