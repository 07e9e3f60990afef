package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/multierr"
)

const maxChainDepth = 8

// PGDetail is the subset of a Postgres error worth logging.
type PGDetail struct {
	Code       string `json:"code,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Diagnosis flattens an error for structured request logs.
type Diagnosis struct {
	Message   string    `json:"message"`
	Code      Code      `json:"code,omitempty"`
	Status    int       `json:"status"`
	Retryable bool      `json:"retryable"`
	Chain     []string  `json:"chain,omitempty"`
	Causes    []string  `json:"causes,omitempty"`
	Postgres  *PGDetail `json:"postgres,omitempty"`
}

// Diagnose walks the wrap chain of err, picking up the typed code, combined
// job errors and any driver error from Postgres.
func Diagnose(err error) Diagnosis {
	if err == nil {
		return Diagnosis{}
	}

	d := Diagnosis{Message: err.Error(), Code: CodeInternal}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	meta := d.Code.Meta()
	d.Status = meta.Status
	d.Retryable = meta.Retryable

	for e, depth := err, 0; e != nil && depth < maxChainDepth; e, depth = errors.Unwrap(e), depth+1 {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
		if causes := multierr.Errors(e); d.Causes == nil && len(causes) > 1 {
			for _, cause := range causes {
				d.Causes = append(d.Causes, cause.Error())
			}
		}
	}
	d.Postgres = postgresDetail(err)
	return d
}

// Fields renders the diagnosis as logger fields.
func (d Diagnosis) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.Message,
		"error_code":  string(d.Code),
		"error_chain": d.Chain,
		"status":      d.Status,
	}
	if len(d.Causes) > 0 {
		fields["error_causes"] = d.Causes
	}
	if pg := d.Postgres; pg != nil {
		fields["pg_code"] = pg.Code
		fields["pg_constraint"] = pg.Constraint
		fields["pg_table"] = pg.Table
		fields["pg_column"] = pg.Column
		fields["pg_detail"] = pg.Detail
		fields["pg_message"] = pg.Message
	}
	return fields
}

func postgresDetail(err error) *PGDetail {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PGDetail{
			Code:       pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Column:     pgxErr.ColumnName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PGDetail{
			Code:       string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Column:     pqErr.Column,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
	}
	return nil
}
