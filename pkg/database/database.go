package database

import (
	"fmt"
	"log"
	"reading_eval_backend/internal/config"
	"reading_eval_backend/internal/model"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=UTC",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	logLevel := logger.Warn
	if mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established")
	return db, nil
}

// Migrate 建表；内容库与目录表由外部系统维护，这里同样迁移以便本地开发
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Classroom{},
		&model.Student{},
		&model.Enrollment{},
		&model.ReadingText{},
		&model.Quiz{},
		&model.QuizQuestion{},
		&model.QuestionOption{},
		&model.InferenceStatement{},
		&model.VocabularyPair{},
		&model.SequenceItem{},
		&model.EvaluationSession{},
		&model.EvaluationAttempt{},
		&model.AccessCode{},
		&model.ComprehensionAnswer{},
		&model.InferenceAnswer{},
		&model.VocabularyAnswer{},
		&model.SequenceAnswer{},
	)
	if err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}
