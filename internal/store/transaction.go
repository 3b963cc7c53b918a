package store

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type txKey struct{}

var errNoTransaction = errors.New("no transaction in progress")

// tx is the transaction carried by a context built with NewTransactionContext.
// Intake uses it to write the document and its pending status atomically.
type tx struct {
	db  *gorm.DB
	id  int64
	log logrus.FieldLogger
}

func newTransactionContext(ctx context.Context, db *gorm.DB, log logrus.FieldLogger) (context.Context, error) {
	// nested calls join the outer transaction
	if current(ctx) != nil {
		return ctx, nil
	}

	begun := db.WithContext(ctx).Begin()
	if begun.Error != nil {
		return ctx, begun.Error
	}

	t := &tx{db: begun, log: log}
	// txid_current is postgres only and only used to correlate log lines.
	if db.Dialector.Name() == "postgres" {
		var row struct{ ID int64 }
		begun.Raw("select txid_current() as id").Scan(&row)
		t.id = row.ID
	}

	return context.WithValue(ctx, txKey{}, t), nil
}

func current(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

// FromContext returns the open transaction carried by ctx, or nil.
func FromContext(ctx context.Context) *gorm.DB {
	if t := current(ctx); t != nil {
		return t.db
	}
	return nil
}

// Commit ends the transaction carried by ctx and returns a context without it.
// A context without a transaction is returned unchanged.
func Commit(ctx context.Context) (context.Context, error) {
	return finish(ctx, "commit", func(db *gorm.DB) *gorm.DB { return db.Commit() })
}

func Rollback(ctx context.Context) (context.Context, error) {
	return finish(ctx, "rollback", func(db *gorm.DB) *gorm.DB { return db.Rollback() })
}

func finish(ctx context.Context, op string, end func(*gorm.DB) *gorm.DB) (context.Context, error) {
	t := current(ctx)
	if t == nil {
		return ctx, nil
	}
	detached := context.WithValue(ctx, txKey{}, (*tx)(nil))

	if t.db == nil {
		return detached, errNoTransaction
	}

	logger := t.log.WithFields(logrus.Fields{"txid": t.id, "op": op})
	if err := end(t.db).Error; err != nil {
		logger.WithError(err).Error("transaction did not finish")
		return detached, err
	}
	t.db = nil
	logger.Debug("transaction finished")

	return detached, nil
}
