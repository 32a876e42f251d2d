package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"CapIot.telemetry/internal/metrics"
	"CapIot.telemetry/internal/models"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/domain"
)

const (
	influxBackend = "influxdb"

	readingsMeasurement = "readings"
	historyMeasurement  = "voltage_history"
	historySuffix       = "/history"
)

// influxField is the latest value of one field of the readings measurement.
type influxField struct {
	Name  string
	Value interface{}
}

// influxHistoryRow is one pivoted row of the history measurement.
type influxHistoryRow struct {
	Time     time.Time
	Voltages map[string]interface{}
}

// InfluxDBRepository serves the same snapshot tree from an InfluxDB bucket that
// mirrors the readings: the readings path maps to the last value of each field
// of the readings measurement, the history path to the rows of the history
// measurement, both filtered on the "path" tag.
type InfluxDBRepository struct {
	client       influxdb2.Client
	org          string
	bucket       string
	readingsPath string
}

// NewInfluxDBRepository creates a new InfluxDBRepository.
func NewInfluxDBRepository(url, token, org, bucket, readingsPath string, timeout time.Duration) *InfluxDBRepository {
	opts := influxdb2.DefaultOptions()
	if timeout > 0 {
		opts.SetHTTPRequestTimeout(requestTimeoutSeconds(timeout))
	}
	return &InfluxDBRepository{
		client:       influxdb2.NewClientWithOptions(url, token, opts),
		org:          org,
		bucket:       bucket,
		readingsPath: strings.TrimRight(readingsPath, "/"),
	}
}

// requestTimeoutSeconds converts a positive timeout to the client's whole
// seconds, rounding up so it never becomes 0 (no timeout).
func requestTimeoutSeconds(timeout time.Duration) uint {
	return uint(math.Ceil(timeout.Seconds()))
}

// Ping checks the server health and fails unless it reports pass.
func (r *InfluxDBRepository) Ping(ctx context.Context) error {
	health, err := r.client.Health(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}
	if health.Status != domain.HealthCheckStatusPass {
		message := ""
		if health.Message != nil {
			message = *health.Message
		}
		return fmt.Errorf("InfluxDB health check failed: %s", message)
	}
	log.Println("Successfully connected to InfluxDB")
	return nil
}

// Close releases the client's resources.
func (r *InfluxDBRepository) Close() {
	r.client.Close()
}

// FetchSnapshot reads the readings node or its history child.
func (r *InfluxDBRepository) FetchSnapshot(ctx context.Context, path string) (*models.Snapshot, error) {
	start := time.Now()
	path = strings.TrimRight(path, "/")

	var (
		raw json.RawMessage
		err error
	)
	switch path {
	case r.readingsPath:
		raw, err = r.fetchReadings(ctx)
	case r.readingsPath + historySuffix:
		raw, err = r.fetchHistory(ctx)
	default:
		err = fmt.Errorf("path %s is not mirrored in InfluxDB", path)
	}
	if err != nil {
		metrics.ObserveStoreFetch(influxBackend, metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	snapshot := models.NewSnapshot(path, raw)
	outcome := metrics.OutcomeOK
	if !snapshot.Exists() {
		outcome = metrics.OutcomeEmpty
	}
	metrics.ObserveStoreFetch(influxBackend, outcome, time.Since(start))
	return snapshot, nil
}

func (r *InfluxDBRepository) fetchReadings(ctx context.Context) (json.RawMessage, error) {
	fluxQuery := fmt.Sprintf(`
		from(bucket: %s)
		|> range(start: 0)
		|> filter(fn: (r) => r["_measurement"] == "%s" and r["path"] == %s)
		|> last()
	`, strconv.Quote(r.bucket), readingsMeasurement, strconv.Quote(r.readingsPath))

	result, err := r.client.QueryAPI(r.org).Query(ctx, fluxQuery)
	if err != nil {
		return nil, fmt.Errorf("error querying InfluxDB: %w", err)
	}
	defer result.Close()

	var fields []influxField
	for result.Next() {
		record := result.Record()
		fields = append(fields, influxField{Name: record.Field(), Value: record.Value()})
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("query error: %w", result.Err())
	}
	return buildReadingsTree(fields)
}

func (r *InfluxDBRepository) fetchHistory(ctx context.Context) (json.RawMessage, error) {
	fluxQuery := fmt.Sprintf(`
		from(bucket: %s)
		|> range(start: 0)
		|> filter(fn: (r) => r["_measurement"] == "%s" and r["path"] == %s)
		|> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
		|> group()
		|> sort(columns: ["_time"])
	`, strconv.Quote(r.bucket), historyMeasurement, strconv.Quote(r.readingsPath))

	result, err := r.client.QueryAPI(r.org).Query(ctx, fluxQuery)
	if err != nil {
		return nil, fmt.Errorf("error querying InfluxDB: %w", err)
	}
	defer result.Close()

	var rows []influxHistoryRow
	for result.Next() {
		record := result.Record()
		voltages := make(map[string]interface{})
		for _, name := range []string{models.FieldVoltage1, models.FieldVoltage2, models.FieldVoltage3} {
			if v := record.ValueByKey(name); v != nil {
				voltages[name] = v
			}
		}
		rows = append(rows, influxHistoryRow{Time: record.Time(), Voltages: voltages})
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("query error: %w", result.Err())
	}
	return buildHistoryTree(rows)
}

// buildReadingsTree renders the latest field values as the readings node. No
// fields means no data.
func buildReadingsTree(fields []influxField) (json.RawMessage, error) {
	if len(fields) == 0 {
		return json.RawMessage("null"), nil
	}
	node := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		node[f.Name] = f.Value
	}
	raw, err := json.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("error encoding readings: %w", err)
	}
	return raw, nil
}

// buildHistoryTree renders rows as history children keyed by their sample time
// in nanoseconds, keeping the row order.
func buildHistoryTree(rows []influxHistoryRow) (json.RawMessage, error) {
	if len(rows) == 0 {
		return json.RawMessage("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, row := range rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		entry, err := json.Marshal(map[string]interface{}{
			"timestamp": row.Time.UnixMilli(),
			"voltages":  row.Voltages,
		})
		if err != nil {
			return nil, fmt.Errorf("error encoding history row: %w", err)
		}
		buf.WriteString(strconv.Quote(strconv.FormatInt(row.Time.UnixNano(), 10)))
		buf.WriteByte(':')
		buf.Write(entry)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
