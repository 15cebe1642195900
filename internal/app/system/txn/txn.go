// internal/app/system/txn/txn.go

// Package txn runs multi-document writes inside a Mongo transaction when the
// deployment supports one, and tells callers when it does not so they can
// fall back to compensating writes.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction runs fn inside a session transaction. The session commits
// when fn returns nil and aborts when it returns an error. Callers that need
// to work against standalone servers should check the returned error with
// IsNotSupported and retry with their compensating path.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}

// Server error codes meaning "this deployment cannot run transactions"
// (standalone server, or an operation illegal inside a transaction).
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation: transaction numbers require a replica set
	51:  true, // illegal operation
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err means transactions are unavailable on
// the connected deployment rather than that this transaction failed. It
// matches by server error code first and falls back to message keywords for
// drivers/proxies that wrap the code away.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && notSupportedCodes[cmdErr.Code] {
		return true
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("illegal operation") && has("transaction"):
		return true
	}
	return false
}
