package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtyMigration 上次迁移中途失败，需人工修复后 force 版本
var ErrDirtyMigration = errors.New("数据库迁移处于 dirty 状态")

// MigrationState 当前 schema 版本，Version 为 0 表示尚未迁移
type MigrationState struct {
	Version uint
	Dirty   bool
}

// 不对返回的 Migrate 调用 Close：postgres 驱动会连带关闭传入的 *sql.DB
func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("加载迁移文件失败: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("创建迁移驱动失败: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("初始化迁移实例失败: %w", err)
	}
	return m, nil
}

func stateOf(m *migrate.Migrate) (MigrationState, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationState{}, nil
	}
	if err != nil {
		return MigrationState{}, fmt.Errorf("读取迁移版本失败: %w", err)
	}
	return MigrationState{Version: v, Dirty: dirty}, nil
}

// MigrationStatus 只读查询，不应用任何迁移
func MigrationStatus(db *sql.DB) (MigrationState, error) {
	m, err := newMigrator(db)
	if err != nil {
		return MigrationState{}, err
	}
	return stateOf(m)
}

// RunMigrations 启动时调用，应用全部未执行的 up 迁移
// dirty 状态下拒绝继续，返回 ErrDirtyMigration
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	before, err := stateOf(m)
	if err != nil {
		return err
	}
	if before.Dirty {
		return fmt.Errorf("%w: version=%d", ErrDirtyMigration, before.Version)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	after, err := stateOf(m)
	if err != nil {
		return err
	}
	if after.Version == before.Version {
		logger.Info("数据库 schema 已是最新", zap.Uint("version", after.Version))
		return nil
	}
	logger.Info("数据库迁移完成",
		zap.Uint("from", before.Version),
		zap.Uint("to", after.Version),
	)
	return nil
}

// RollbackMigrations 回退 steps 个版本
func RollbackMigrations(db *sql.DB, steps int, logger *zap.Logger) error {
	if steps <= 0 {
		return fmt.Errorf("回退步数必须为正数: %d", steps)
	}
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("回退迁移失败: %w", err)
	}
	state, err := stateOf(m)
	if err != nil {
		return err
	}
	logger.Warn("数据库迁移已回退", zap.Int("steps", steps), zap.Uint("version", state.Version))
	return nil
}
