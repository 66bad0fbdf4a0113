package storage

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/evkuzin/climescope/config"
	"github.com/evkuzin/climescope/prediction"
	"github.com/evkuzin/climescope/sensor"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Storage struct {
	db *gorm.DB
}

func (s *Storage) Init(config *config.Config) error {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		config.Database.Host,
		config.Database.User,
		config.Database.Password,
		config.Database.Database,
		config.Database.Port)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return err
	}
	s.db = db
	return s.db.AutoMigrate(&Sample{}, &Forecast{})
}

func (s *Storage) Put(sample sensor.Sample) error {
	row := newSample(sample)
	return s.db.Create(&row).Error
}

func (s *Storage) RecordPrediction(rec prediction.Record) error {
	row := newForecast(rec)
	return s.db.Create(&row).Error
}

func (s *Storage) GetEvents(t time.Duration) []Sample {
	var events []Sample
	s.db.Where("time > ?", time.Now().Add(-t)).Order("time").Find(&events)
	return events
}

func (s *Storage) GetForecasts(t time.Duration) []Forecast {
	var forecasts []Forecast
	s.db.Where("time > ?", time.Now().Add(-t)).Order("time").Find(&forecasts)
	return forecasts
}

func (s *Storage) GetAvg(t time.Duration) (Average, error) {
	var avg Average
	tx := s.db.Model(&Sample{}).
		Select("AVG(temperature) AS temperature, AVG(humidity) AS humidity, AVG(gas_raw) AS gas_raw, COUNT(*) AS samples").
		Where("time > ?", time.Now().Add(-t)).
		Scan(&avg)
	return avg, tx.Error
}

func (s *Storage) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	tx := s.db.Where("time < ?", cutoff).Delete(&Sample{})
	if tx.Error != nil {
		return 0, tx.Error
	}
	removed := tx.RowsAffected
	tx = s.db.Where("time < ?", cutoff).Delete(&Forecast{})
	return removed + tx.RowsAffected, tx.Error
}

func NewStorage() Adapter {
	return &Storage{}
}
