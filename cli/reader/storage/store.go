package storage

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/storage/store/console"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/storage/store/csvfile"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/storage/store/mysql"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/storage/store/nats"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/storage/store/postgresql"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/storage/store/rabbitmq"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/storage/store/redis"
	"github.com/Bullseye-Senior-Design/UWB-Subsystem/cli/reader/storage/store/tarantool_queue"
)

var ErrInvalidStorage = errors.New("storage not found")
var ErrUnknownStorage = errors.New("storage isn't supported yet")

type Store interface {
	Connector
	Saver
}

// Saver is the write side of an external storage.
type Saver interface {
	// Save persists a single record.
	Save(interface{ ToBytes() ([]byte, error) }) error
}

// Connector manages the connection to an external storage.
type Connector interface {
	// Init establishes the connection.
	Init(map[string]string) error

	// Close shuts the connection down.
	Close() error
}

// Repository is the set of output storages.
type Repository struct {
	storages []Saver

	// MinQuality drops records whose location engine quality factor
	// is below the threshold. Zero keeps everything.
	MinQuality uint8
}

// AddStore registers a storage for saving.
func (r *Repository) AddStore(s Saver) {
	r.storages = append(r.storages, s)
}

// Save persists the record in every registered storage.
func (r *Repository) Save(m interface{ ToBytes() ([]byte, error) }) error {
	if r.MinQuality > 0 {
		if rated, ok := m.(interface{ QualityFactor() uint8 }); ok && rated.QualityFactor() < r.MinQuality {
			log.Debugf("Position not saved. Quality factor %d is below the configured minimum %d",
				rated.QualityFactor(), r.MinQuality)
			return nil
		}
	}

	for _, store := range r.storages {
		if err := store.Save(m); err != nil {
			return err
		}
	}
	return nil
}

// LoadStorages instantiates storages from the config structure.
func (r *Repository) LoadStorages(storages map[string]map[string]string) error {
	if len(storages) == 0 {
		return ErrInvalidStorage
	}

	var db Store
	for store, params := range storages {
		switch store {
		case "console":
			db = &console.Connector{}
		case "csv":
			db = &csvfile.Connector{}
		case "postgresql":
			db = &postgresql.Connector{}
		case "mysql":
			db = &mysql.Connector{}
		case "redis":
			db = &redis.Connector{}
		case "nats":
			db = &nats.Connector{}
		case "rabbitmq":
			db = &rabbitmq.Connector{}
		case "tarantool_queue":
			db = &tarantool_queue.Connector{}
		default:
			return ErrUnknownStorage
		}

		if err := db.Init(params); err != nil {
			return err
		}

		r.AddStore(db)
	}
	return nil
}

// Close shuts down every storage that holds a connection.
func (r *Repository) Close() error {
	var firstErr error
	for _, store := range r.storages {
		connector, ok := store.(Connector)
		if !ok {
			continue
		}
		if err := connector.Close(); err != nil {
			log.WithField("err", err).Error("Failed to close storage")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// NewRepository creates an empty repository.
func NewRepository(minQuality uint8) *Repository {
	return &Repository{
		MinQuality: minQuality,
	}
}
