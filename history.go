package portwatch

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type DatabaseLocation string

const (
	NO_DATABASE       DatabaseLocation = ""
	INMEMORY_DATABASE DatabaseLocation = ":memory:"
)

// A persisted scan run. The full serialized snapshot rides along as a JSON
// column so past runs can be re-exported or diffed without re-scanning.
type ScanRecord struct {
	gorm.Model

	SnapshotID string `gorm:"uniqueIndex"`
	Target     string
	StartPort  uint16
	EndPort    uint16
	OpenPorts  int
	Taken      time.Time
	Data       datatypes.JSON
}

type History interface {
	SaveSnapshot(snap *Snapshot) error
	Snapshots(limit int) ([]*ScanRecord, error)
	Snapshot(id string) (*Snapshot, error)
}

type historyRepo struct {
	db       *gorm.DB
	location string
	config   *gorm.Config
}

func NewHistory(location DatabaseLocation) History {
	return &historyRepo{
		location: string(location),
		config: &gorm.Config{
			SkipDefaultTransaction: true,
			PrepareStmt:            true,
		},
	}
}

func (r *historyRepo) connect() (*gorm.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := gorm.Open(sqlite.Open(r.location), r.config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open history database")
	}

	db = db.Exec("PRAGMA foreign_keys = ON")
	if err := db.AutoMigrate(&ScanRecord{}); err != nil {
		return nil, err
	}
	r.db = db

	return db, nil
}

// do whatever within a separate transaction
func (r *historyRepo) withTransaction(fn func(conn *gorm.DB) error) error {
	if _, err := r.connect(); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

func (r *historyRepo) SaveSnapshot(snap *Snapshot) error {
	data, err := snap.Marshal()
	if err != nil {
		return err
	}

	record := ScanRecord{
		SnapshotID: snap.ID,
		Target:     snap.Target.Host,
		StartPort:  snap.Spec.Start,
		EndPort:    snap.Spec.End,
		OpenPorts:  snap.Count(PortOpen),
		Taken:      snap.Timestamp,
		Data:       datatypes.JSON(data),
	}

	return r.withTransaction(func(conn *gorm.DB) error {
		if err := conn.Create(&record).Error; err != nil {
			return errors.Wrap(err, "failed to store scan record")
		}
		return nil
	})
}

// The most recent runs, newest first.
func (r *historyRepo) Snapshots(limit int) ([]*ScanRecord, error) {
	var records []*ScanRecord
	err := r.withTransaction(func(conn *gorm.DB) error {
		q := conn.Order("created_at DESC")
		if limit > 0 {
			q = q.Limit(limit)
		}
		if err := q.Find(&records).Error; err != nil {
			return errors.Wrap(err, "failed to list scan records")
		}
		return nil
	})
	return records, err
}

func (r *historyRepo) Snapshot(id string) (*Snapshot, error) {
	var record ScanRecord
	err := r.withTransaction(func(conn *gorm.DB) error {
		q := conn.First(&record, "snapshot_id = ?", id)
		if err := q.Error; err != nil {
			return errors.Wrapf(err, "failed to find scan %s", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ParseSnapshot([]byte(record.Data))
}
