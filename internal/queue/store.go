package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type entryRecord struct {
	ParticipantId string `gorm:"primaryKey"`
	DisplayName   string `gorm:"not null"`
	PriorityClass int    `gorm:"not null;default:0"`
	JoinedAt      int64  `gorm:"index;not null"` // unix nanoseconds, unique in practice
}

func (entryRecord) TableName() string { return "queue_entries" }

func (record *entryRecord) entry() Entry {
	return Entry{
		ParticipantId: ParticipantId(record.ParticipantId),
		DisplayName:   record.DisplayName,
		Priority:      PriorityClass(record.PriorityClass),
		JoinedAt:      time.Unix(0, record.JoinedAt),
	}
}

// Store is the durable, ordered record of waiting participants.
// Every operation runs as one atomic unit: the store mutex is held
// for the duration of a database transaction
type Store struct {
	db    *gorm.DB
	mutex sync.Mutex
	now   func() time.Time
}

// Open the queue store. Driver is "sqlite" (dsn is a file path) or "postgres"
func OpenStore(driver string, dsn string) (*Store, error) {

	var dialector gorm.Dialector
	switch driver {
	case "", "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("queue store driver %s not supported", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("could not open queue store: %w", err)
	}

	// sqlite serializes writers anyway, a single connection avoids "database is locked"
	if driver != "postgres" {
		sqlDb, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDb.SetMaxOpenConns(1)
	}

	return NewStore(db)
}

func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&entryRecord{}); err != nil {
		return nil, fmt.Errorf("could not migrate queue store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (store *Store) Close() error {
	sqlDb, err := store.db.DB()
	if err != nil {
		return err
	}
	return sqlDb.Close()
}

func (store *Store) atomically(ctx context.Context, fn func(tx *gorm.DB) error) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return store.db.WithContext(ctx).Transaction(fn)
}

// Run fn under the store lock, ordered with every atomic unit
func (store *Store) exclusive(fn func() error) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()
	return fn()
}

// Insert a new participant at the back of the queue
func (store *Store) Insert(ctx context.Context, participant ParticipantId, displayName string, class PriorityClass) (Entry, error) {
	return store.insert(ctx, nil, participant, displayName, class)
}

// admit runs inside the atomic unit, before anything is read
func (store *Store) insert(ctx context.Context, admit func() error, participant ParticipantId, displayName string, class PriorityClass) (Entry, error) {

	var entry Entry
	err := store.atomically(ctx, func(tx *gorm.DB) error {

		if admit != nil {
			if err := admit(); err != nil {
				return err
			}
		}

		// At most one entry per participant
		var count int64
		if err := tx.Model(&entryRecord{}).Where("participant_id = ?", string(participant)).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyQueued
		}

		// Timestamps are strictly increasing, even if the clock is not
		var last int64
		if err := tx.Model(&entryRecord{}).Select("COALESCE(MAX(joined_at), 0)").Row().Scan(&last); err != nil {
			return err
		}
		joinedAt := store.now().UnixNano()
		if joinedAt <= last {
			joinedAt = last + 1
		}

		record := entryRecord{
			ParticipantId: string(participant),
			DisplayName:   displayName,
			PriorityClass: int(class),
			JoinedAt:      joinedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		entry = record.entry()
		return nil
	})
	if err != nil {
		return Entry{}, err
	}
	log.Debug().Str("participant", string(participant)).Msg("Inserted queue entry")
	return entry, nil
}

// Remove a specific participant, wherever it is in the queue
func (store *Store) Remove(ctx context.Context, participant ParticipantId) (Entry, error) {

	var entry Entry
	err := store.atomically(ctx, func(tx *gorm.DB) error {
		var record entryRecord
		err := tx.Where("participant_id = ?", string(participant)).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotQueued
		}
		if err != nil {
			return err
		}
		if err := tx.Where("participant_id = ?", record.ParticipantId).Delete(&entryRecord{}).Error; err != nil {
			return err
		}
		entry = record.entry()
		return nil
	})
	return entry, err
}

// Remove and return the earliest entry, optionally restricted to one class.
// The boolean is false when no entry is eligible
func (store *Store) PopEarliest(ctx context.Context, only *PriorityClass) (Entry, bool, error) {

	var entry Entry
	found := false
	err := store.atomically(ctx, func(tx *gorm.DB) error {
		query := tx.Order("joined_at ASC")
		if only != nil {
			query = query.Where("priority_class = ?", int(*only))
		}
		var record entryRecord
		err := query.First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.Where("participant_id = ?", record.ParticipantId).Delete(&entryRecord{}).Error; err != nil {
			return err
		}
		entry = record.entry()
		found = true
		return nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	return entry, found, nil
}

// Remove every entry and return how many there were
func (store *Store) RemoveAll(ctx context.Context) (int, error) {
	var removed int64
	err := store.atomically(ctx, func(tx *gorm.DB) error {
		result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entryRecord{})
		removed = result.RowsAffected
		return result.Error
	})
	return int(removed), err
}

// All entries in queue order
func (store *Store) List(ctx context.Context) ([]Entry, error) {
	var records []entryRecord
	err := store.atomically(ctx, func(tx *gorm.DB) error {
		return tx.Order("joined_at ASC").Find(&records).Error
	})
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, len(records))
	for i := range records {
		entries[i] = records[i].entry()
	}
	return entries, nil
}

// Compute the position of a participant. The boolean is false if not queued
func (store *Store) Position(ctx context.Context, participant ParticipantId) (Position, bool, error) {

	var position Position
	found := false
	err := store.atomically(ctx, func(tx *gorm.DB) error {
		var record entryRecord
		err := tx.Where("participant_id = ?", string(participant)).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		var rank, total int64
		if err := tx.Model(&entryRecord{}).Where("joined_at <= ?", record.JoinedAt).Count(&rank).Error; err != nil {
			return err
		}
		if err := tx.Model(&entryRecord{}).Count(&total).Error; err != nil {
			return err
		}
		position = Position{Rank: int(rank), Total: int(total)}
		found = true
		return nil
	})
	if err != nil {
		return Position{}, false, err
	}
	return position, found, nil
}

func (store *Store) Count(ctx context.Context) (int, error) {
	var total int64
	err := store.atomically(ctx, func(tx *gorm.DB) error {
		return tx.Model(&entryRecord{}).Count(&total).Error
	})
	return int(total), err
}
