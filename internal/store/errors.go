package store

import (
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"ride_dispatch/internal/apperr"
)

// classify maps a store failure onto the apperr taxonomy. Record-not-found is
// handled by callers since only they know what was missing.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if e := apperr.FromContext(err); e != nil {
		return e
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "57014": // query_canceled, statement_timeout
			return apperr.Wrap(apperr.KindTimeout, op+": query timed out", err)
		case strings.HasPrefix(pgErr.Code, "08"), // connection_exception
			pgErr.Code == "53300", // too_many_connections
			pgErr.Code == "57P01", // admin_shutdown
			pgErr.Code == "57P03": // cannot_connect_now
			return apperr.Wrap(apperr.KindUnavailable, op+": database unavailable", err)
		}
		return apperr.Wrap(apperr.KindInternal, op, err)
	}

	if pgconn.Timeout(err) {
		return apperr.Wrap(apperr.KindTimeout, op+": query timed out", err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.Is(err, driver.ErrBadConn) {
		return apperr.Wrap(apperr.KindUnavailable, op+": database unavailable", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return apperr.Wrap(apperr.KindTimeout, op+": query timed out", err)
		}
		return apperr.Wrap(apperr.KindUnavailable, op+": database unavailable", err)
	}

	return apperr.Wrap(apperr.KindInternal, op, err)
}

// escapeLike makes s match literally inside a LIKE pattern using postgres'
// default backslash escape.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
