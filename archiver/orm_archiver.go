package archiver

import (
	"errors"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opentensor/subtensor-js-tests-sub000/chain"
	"github.com/opentensor/subtensor-js-tests-sub000/types"
)

const defaultDSN = "default.db"

type ORMArchiverConfig struct {
	Enabled      bool   `json:"enabled"`
	ArchiverType string `json:"archiverType"`
	DSN          string `json:"dsn"`
}

var _ chain.Observer = (*ORMArchiver)(nil)

// ORMArchiver stores one row per finished submission.
type ORMArchiver struct {
	db  *gorm.DB
	log logging.Logger
}

type DBOutcome struct {
	gorm.Model
	SubmissionID string `gorm:"uniqueIndex"`
	Call         string `gorm:"index"`
	Args         string
	Signer       string `gorm:"index"`
	Outcome      string
	BlockHash    string
	Height       uint64 `gorm:"index"`

	Error       string
	ErrorPallet string
	ErrorName   string

	Started  time.Time
	Duration time.Duration
}

func NewORMArchiver(db *gorm.DB, log logging.Logger) (*ORMArchiver, error) {
	if err := db.AutoMigrate(&DBOutcome{}); err != nil {
		return nil, err
	}
	return &ORMArchiver{
		db:  db,
		log: log,
	}, nil
}

func NewORMArchiverFromConfig(conf *ORMArchiverConfig, log logging.Logger) (*ORMArchiver, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(conf.ArchiverType) {
	case "postgresql", "postgres":
		log.Info("using postgresql as archiver")
		dialector = postgres.New(postgres.Config{
			DSN:                  conf.DSN,
			PreferSimpleProtocol: true,
		})
	default:
		dsn := conf.DSN
		if dsn == "" {
			dsn = defaultDSN
		}
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return NewORMArchiver(db, log)
}

func newDBOutcome(r *chain.Record) *DBOutcome {
	row := &DBOutcome{
		SubmissionID: r.Outcome.ID,
		Call:         r.Call.Name(),
		Args:         r.Call.String(),
		Signer:       r.Signer,
		Outcome:      r.Outcome.Kind.String(),
		BlockHash:    r.Outcome.Block.Hash,
		Height:       r.Outcome.Block.Number,
		Started:      r.Started,
		Duration:     r.Duration,
	}
	if r.Outcome.Err != nil {
		row.Error = r.Outcome.Err.Error()
		var decErr *types.DispatchError
		if errors.As(r.Outcome.Err, &decErr) {
			row.ErrorPallet = decErr.Pallet
			row.ErrorName = decErr.Name
		}
	}
	return row
}

func (oa *ORMArchiver) InsertOutcome(r *chain.Record) error {
	row := newDBOutcome(r)
	tx := oa.db.Begin()
	if err := tx.Create(row).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func (oa *ORMArchiver) ObserveSubmission(r *chain.Record) {
	if err := oa.InsertOutcome(r); err != nil {
		oa.log.Warn("failed to archive submission",
			zap.String("id", r.Outcome.ID),
			zap.Error(err),
		)
	}
}

// DecodeFallback is not archived; the raw error is already on the row.
func (*ORMArchiver) DecodeFallback(error) {}

// GetBySigner returns the newest limit outcomes of signer, newest first.
func (oa *ORMArchiver) GetBySigner(signer string, limit int) ([]DBOutcome, error) {
	var rows []DBOutcome
	q := oa.db.Where("signer = ?", signer).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByHeight returns outcomes included in blocks [start, end), ordered by
// height.
func (oa *ORMArchiver) GetByHeight(start, end uint64) ([]DBOutcome, error) {
	var rows []DBOutcome
	if err := oa.db.
		Where("height >= ? AND height < ?", start, end).
		Order("height, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (oa *ORMArchiver) GetByID(id string) (*DBOutcome, error) {
	var row DBOutcome
	if err := oa.db.Where("submission_id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CountByOutcome groups archived submissions by outcome kind.
func (oa *ORMArchiver) CountByOutcome() (map[string]int64, error) {
	var counts []struct {
		Outcome string
		N       int64
	}
	if err := oa.db.Model(&DBOutcome{}).
		Select("outcome, count(*) as n").
		Group("outcome").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(counts))
	for _, c := range counts {
		out[c.Outcome] = c.N
	}
	return out, nil
}

func (oa *ORMArchiver) Close() error {
	sqlDB, err := oa.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
