package storage

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(&DayAlmanac{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

// SaveDay inserts the day or replaces the row already stored for its date.
func (d *Database) SaveDay(day *DayAlmanac) error {
	return d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"updated_at", "year", "season",
			"sunrise", "sunset", "dawn", "dusk", "midnight_sun", "polar_night",
			"has_directory", "images", "visible_images",
		}),
	}).Create(day).Error
}

// SaveDays stores a batch of days in one transaction.
func (d *Database) SaveDays(days []DayAlmanac) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		store := &Database{db: tx}
		for i := range days {
			if err := store.SaveDay(&days[i]); err != nil {
				return fmt.Errorf("failed to save %s: %w", days[i].Date, err)
			}
		}
		return nil
	})
}

func (d *Database) GetDay(date string) (*DayAlmanac, error) {
	var day DayAlmanac
	result := d.db.Where("date = ?", date).First(&day)
	if result.Error != nil {
		return nil, result.Error
	}
	return &day, nil
}

// GetRange returns the stored days between from and to (YYYYMMDD, both
// included), oldest first.
func (d *Database) GetRange(from, to string) ([]DayAlmanac, error) {
	var days []DayAlmanac
	result := d.db.Where("date BETWEEN ? AND ?", from, to).
		Order("date asc").
		Find(&days)
	if result.Error != nil {
		return nil, result.Error
	}
	return days, nil
}

func (d *Database) GetYearSummary(year int) (*YearSummary, error) {
	summary := YearSummary{Year: year}
	result := d.db.Model(&DayAlmanac{}).
		Select(`COUNT(*) AS days,
			COALESCE(SUM(CASE WHEN images > 0 THEN 1 ELSE 0 END), 0) AS days_with_images,
			COALESCE(SUM(images), 0) AS images,
			COALESCE(SUM(visible_images), 0) AS visible_images,
			COALESCE(SUM(CASE WHEN midnight_sun THEN 1 ELSE 0 END), 0) AS midnight_sun_days,
			COALESCE(SUM(CASE WHEN polar_night THEN 1 ELSE 0 END), 0) AS polar_night_days`).
		Where("year = ?", year).
		Scan(&summary)
	if result.Error != nil {
		return nil, result.Error
	}
	summary.Year = year
	return &summary, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
