package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicate возвращается при нарушении ограничения уникальности.
	ErrDuplicate = errors.New("duplicate entity")
	// ErrReferenced возвращается при нарушении ограничения внешнего ключа.
	ErrReferenced = errors.New("entity is referenced")
	// ErrClosed возвращается при использовании закрытой единицы работы.
	ErrClosed = errors.New("unit of work is closed")
	// ErrTxActive возвращается при попытке открыть вложенную транзакцию.
	ErrTxActive = errors.New("transaction already active")
	// ErrNoTx возвращается при фиксации или откате без открытой транзакции.
	ErrNoTx = errors.New("no active transaction")
)

// translateError приводит ошибки драйверов к ошибкам пакета.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case pgerrcode.ForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrReferenced, pgErr.ConstraintName)
		}
		return err
	}

	// sqlite отдаёт ограничения только текстом
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", ErrDuplicate, strings.TrimPrefix(msg, "UNIQUE constraint failed: "))
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", ErrReferenced, err)
	}

	return err
}
