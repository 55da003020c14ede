// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL через pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrConflict — нарушение уникальности (повтор ключа идемпотентности).
	ErrConflict = errors.New("запись уже существует")
	// ErrUnknownUser — запись ссылается на отсутствующего пользователя.
	ErrUnknownUser = errors.New("пользователь не найден")
)

// DBTX — то, через что репозитории выполняют запросы: *pgxpool.Pool или pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// classify переводит ошибку pgx в ошибку слоя репозиториев.
// Нераспознанные ошибки оборачиваются с описанием операции op.
func classify(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		case pgerrcode.ForeignKeyViolation:
			return ErrUnknownUser
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern — шаблон ILIKE «содержит q» со спецсимволами q, взятыми буквально.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}
