package services

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github/itish2003/caseqa/metrics"
)

// DocumentLocator resolves a process number to the storage URI of its document.
type DocumentLocator interface {
	Locate(ctx context.Context, caseID int64) (string, error)
}

// maxLocationRows bounds how many rows are read per lookup. Two are enough
// to tell "exactly one" from "more than one".
const maxLocationRows = 2

// bigQueryRunner executes a parameterized query and returns the gcs_uri
// column of at most maxRows rows.
type bigQueryRunner interface {
	Read(ctx context.Context, query string, params []bigquery.QueryParameter, maxRows int) ([]string, error)
}

// BigQueryLocator looks documents up in a BigQuery table holding (id, gcs_uri) rows.
type BigQueryLocator struct {
	runner   bigQueryRunner
	tableRef string
	strict   bool
	logger   *zap.Logger
}

// NewBigQueryLocator creates a locator over project.dataset.table. With strict
// set, a process number matching several rows is an error instead of
// resolving to the first row.
func NewBigQueryLocator(client *bigquery.Client, tableRef string, strict bool, log *zap.Logger) *BigQueryLocator {
	return newBigQueryLocator(&bigQueryClientRunner{client: client}, tableRef, strict, log)
}

func newBigQueryLocator(runner bigQueryRunner, tableRef string, strict bool, log *zap.Logger) *BigQueryLocator {
	return &BigQueryLocator{
		runner:   runner,
		tableRef: tableRef,
		strict:   strict,
		logger:   log.With(zap.String("backend", "bigquery")),
	}
}

// Query returns the standard SQL statement issued for every lookup.
func (l *BigQueryLocator) Query() string {
	return fmt.Sprintf("SELECT gcs_uri FROM `%s` WHERE id = @id", l.tableRef)
}

func (l *BigQueryLocator) Locate(ctx context.Context, caseID int64) (string, error) {
	params := []bigquery.QueryParameter{{Name: "id", Value: caseID}}

	locations, err := l.runner.Read(ctx, l.Query(), params, maxLocationRows)
	if err != nil {
		l.logger.Error("Error fetching GCS URI from BigQuery",
			zap.Int64("process_number", caseID),
			zap.Error(err),
		)
		metrics.DocumentLookups.WithLabelValues("bigquery", "error").Inc()
		return "", &LookupError{CaseID: caseID, Err: err}
	}

	return resolveLocation(caseID, locations, l.strict, "bigquery", l.logger)
}

// bigQueryClientRunner is the production bigQueryRunner.
type bigQueryClientRunner struct {
	client *bigquery.Client
}

type locationRow struct {
	GCSURI bigquery.NullString `bigquery:"gcs_uri"`
}

func (r *bigQueryClientRunner) Read(ctx context.Context, query string, params []bigquery.QueryParameter, maxRows int) ([]string, error) {
	q := r.client.Query(query)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, err
	}

	var locations []string
	for len(locations) < maxRows {
		var row locationRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		locations = append(locations, row.GCSURI.StringVal)
	}
	return locations, nil
}

// resolveLocation applies the row policy shared by every backend.
func resolveLocation(caseID int64, locations []string, strict bool, backend string, log *zap.Logger) (string, error) {
	switch {
	case len(locations) == 0 || locations[0] == "":
		metrics.DocumentLookups.WithLabelValues(backend, "not_found").Inc()
		return "", &LookupError{CaseID: caseID, Err: ErrDocumentNotFound}
	case len(locations) > 1 && strict:
		metrics.DocumentLookups.WithLabelValues(backend, "ambiguous").Inc()
		return "", &LookupError{CaseID: caseID, Err: ErrAmbiguousDocument}
	case len(locations) > 1:
		log.Warn("Several documents match process number, using the first one",
			zap.Int64("process_number", caseID),
		)
	}

	metrics.DocumentLookups.WithLabelValues(backend, "found").Inc()
	return locations[0], nil
}
