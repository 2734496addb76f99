package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/config"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/chat"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/notification"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/prescription"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/profile"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/report"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/settings"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/domain/tip"
	"github.com/dmehra2102/prod-golang-projects/healthbuddy/internal/identity"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   newLogger(log, cfg.SlowQueryThreshold),
		PrepareStmt:                              true,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Ping reports whether the pool can still reach the server.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Models lists every table the service owns, in creation order.
func Models() []any {
	return []any{
		&identity.Account{},
		&domain.AuditLog{},
		&profile.Profile{},
		&profile.PatientRecord{},
		&profile.DoctorRecord{},
		&appointment.Appointment{},
		&prescription.Prescription{},
		&report.Report{},
		&chat.Message{},
		&notification.Notification{},
		&tip.DailyTip{},
		&settings.Settings{},
	}
}

func Migrate(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()
	db = db.WithContext(ctx)

	schemas := []string{"auth", "audit"} // everything else lives in public
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createIndexes(db, log); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	if err := seedTips(db); err != nil {
		return fmt.Errorf("seeding tips: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

func createIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		name     string
		query    string
		optional bool
	}{
		{
			name:  "idx_appointments_doctor_schedule",
			query: `CREATE INDEX IF NOT EXISTS idx_appointments_doctor_schedule ON public.appointments (doctor_id, scheduled_at, duration_mins) WHERE status IN ('scheduled', 'confirmed')`,
		},
		{
			name:  "idx_prescriptions_patient_status",
			query: `CREATE INDEX IF NOT EXISTS idx_prescriptions_patient_status ON public.prescriptions (patient_id, status, end_date)`,
		},
		{
			name:  "idx_notifications_unread",
			query: `CREATE INDEX IF NOT EXISTS idx_notifications_unread ON public.notifications (user_id, created_at DESC) WHERE is_read = false`,
		},
		{
			name:  "idx_identities_external_unique",
			query: `CREATE UNIQUE INDEX IF NOT EXISTS idx_identities_external_unique ON auth.identities (external_provider, external_subject) WHERE external_provider <> ''`,
		},
		// Doctor patient search; needs pg_trgm which managed databases may not allow.
		{
			name:     "idx_profiles_name_trgm",
			query:    `CREATE INDEX IF NOT EXISTS idx_profiles_name_trgm ON public.profiles USING gin (full_name gin_trgm_ops)`,
			optional: true,
		},
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		log.Warn("pg_trgm unavailable", zap.Error(err))
	}

	for _, idx := range indexes {
		if err := db.Exec(idx.query).Error; err != nil {
			if idx.optional {
				log.Warn("skipping optional index", zap.String("index", idx.name), zap.Error(err))
				continue
			}
			return fmt.Errorf("%s: %w", idx.name, err)
		}
	}

	return nil
}

var seedTipRows = []tip.DailyTip{
	tip.Fallback,
	{Title: "Take a short walk after meals.", Content: "Ten minutes of walking after eating helps steady blood sugar.", Category: "Activity"},
	{Title: "Keep a regular sleep schedule.", Content: "Going to bed and waking at the same time supports mood and immunity.", Category: "Sleep"},
	{Title: "Add colour to your plate.", Content: "Different coloured vegetables bring different vitamins and fibre.", Category: "Nutrition"},
	{Title: "Pause for a breathing break.", Content: "A few slow breaths lower stress. Try four seconds in and six out.", Category: "Mental health"},
}

// seedTips fills daily_tips on first migration only.
func seedTips(db *gorm.DB) error {
	var n int64
	if err := db.Model(&tip.DailyTip{}).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	rows := make([]tip.DailyTip, len(seedTipRows))
	copy(rows, seedTipRows)
	return db.Create(&rows).Error
}
