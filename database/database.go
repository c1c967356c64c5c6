package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"expensetracker/config"
	"expensetracker/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接
// MySQL 连接失败时：release 模式直接返回错误；其他模式若配置了 fallback_sqlite 则降级到 SQLite
func Init(cfg *config.Config) error {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg)),
	}

	db, err := open(cfg.Database, gormCfg)
	if err != nil {
		if cfg.Server.Mode == "release" || cfg.Database.Driver == "sqlite" || cfg.Database.FallbackSQLite == "" {
			return fmt.Errorf("连接数据库失败: %w", err)
		}
		log.Printf("警告: 连接 %s 失败，降级使用 SQLite %s: %v", cfg.Database.Driver, cfg.Database.FallbackSQLite, err)
		db, err = openSQLite(cfg.Database.FallbackSQLite, gormCfg)
		if err != nil {
			return fmt.Errorf("降级数据库初始化失败: %w", err)
		}
	}

	if err := Setup(db); err != nil {
		return err
	}
	DB = db

	log.Println("数据库初始化成功")
	return nil
}

func logLevel(cfg *config.Config) logger.LogLevel {
	if cfg.Server.Mode == "release" {
		return logger.Warn
	}
	return logger.Info
}

func open(dbCfg config.DatabaseConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	switch dbCfg.Driver {
	case "sqlite":
		return openSQLite(dbCfg.SQLitePath, gormCfg)
	case "mysql", "":
		// 构建 MySQL DSN 连接字符串
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			dbCfg.Username,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.DBName,
			dbCfg.Charset,
		)
		db, err := gorm.Open(mysql.Open(dsn), gormCfg)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// 设置连接池参数
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		return db, nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", dbCfg.Driver)
	}
}

func openSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on"), gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite 单写者
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Setup 迁移表结构并写入内置类别
func Setup(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Category{},
		&models.RecurringExpense{},
		&models.Expense{},
		&models.ExpenseAttachment{},
		&models.Budget{},
	); err != nil {
		return fmt.Errorf("迁移数据表失败: %w", err)
	}
	return SeedCategories(db)
}

// SeedCategories 初始化内置消费类别（仅当表为空时）
func SeedCategories(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	cats := models.DefaultCategories()
	if err := db.Create(&cats).Error; err != nil {
		return fmt.Errorf("写入内置类别失败: %w", err)
	}
	log.Printf("已写入 %d 个内置类别", len(cats))
	return nil
}
