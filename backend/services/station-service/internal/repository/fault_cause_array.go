package repository

import (
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"cdm/backend/services/station-service/internal/models"
)

// causeArray renders a set as a bigint[] literal for a $n::bigint[] parameter.
// A pgtype.Map is not safe for concurrent use, so each call builds its own.
func causeArray(causes models.FaultCauseSet) (string, error) {
	buf, err := pgtype.NewMap().Encode(pgtype.Int8ArrayOID, pgtype.TextFormatCode, causes.IDs(), nil)
	if err != nil {
		return "", fmt.Errorf("encode fault causes: %w", err)
	}
	return string(buf), nil
}

// causeScanner decodes a bigint[] column into a FaultCauseSet. NULL scans as
// the empty set.
type causeScanner struct {
	dst *models.FaultCauseSet
}

func scanCauses(dst *models.FaultCauseSet) sql.Scanner {
	return causeScanner{dst: dst}
}

func (c causeScanner) Scan(src any) error {
	if src == nil {
		*c.dst = models.FaultCauseSet{}
		return nil
	}
	var ids []int64
	if err := pgtype.NewMap().SQLScanner(&ids).Scan(src); err != nil {
		return fmt.Errorf("scan fault causes: %w", err)
	}
	*c.dst = models.NewFaultCauseSet(ids...)
	return nil
}
