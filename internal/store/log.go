package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"sync"
)

// Header is the column layout of the reading log.
var Header = []string{
	"timestamp",
	"datetime",
	"water_level_cm",
	"temperature_c",
	"humidity_pct",
	"danger_level",
	"rain_level",
}

const datetimeLayout = "2006-01-02 15:04:05"

// Log is the append-only CSV reading log.
//
// A single mutex covers appends and snapshot reads: the ingestion adapter
// appends from its consumer goroutine while the dashboard reads snapshots,
// and both must observe complete rows.
type Log struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// Open opens the reading log at path, creating it with a header row when
// it does not exist yet.
func Open(path string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	l := &Log{path: path, logger: logger}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat reading log: %w", err)
		}
		if err := l.writeHeader(); err != nil {
			return nil, err
		}
		logger.Info("created reading log", "path", path)
	}

	return l, nil
}

// Path returns the file path of the log.
func (l *Log) Path() string { return l.path }

func (l *Log) writeHeader() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create reading log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Append writes one reading to the end of the log.
func (l *Log) Append(r Reading) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open reading log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(encodeRow(r)); err != nil {
		return fmt.Errorf("failed to append reading: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush reading: %w", err)
	}
	return nil
}

// Snapshot re-reads the whole log and returns the readings sorted by
// timestamp. Rows that cannot be decoded are skipped with a warning;
// they never reach the pipeline.
func (l *Log) Snapshot() ([]Reading, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reading log: %w", err)
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.FieldsPerRecord = -1

	// Header row
	if _, err := rd.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var readings []Reading
	for {
		record, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read reading log: %w", err)
		}

		r, derr := decodeRow(record)
		if derr != nil {
			l.logger.Warn("skipping undecodable row", "error", derr)
			continue
		}
		readings = append(readings, r)
	}

	sort.SliceStable(readings, func(i, j int) bool {
		return readings[i].Timestamp < readings[j].Timestamp
	})

	return readings, nil
}

func encodeRow(r Reading) []string {
	return []string{
		strconv.FormatInt(r.Timestamp, 10),
		r.Time().Format(datetimeLayout),
		encodeFloat(r.WaterLevelCM),
		encodeFloat(r.TemperatureC),
		encodeFloat(r.HumidityPct),
		encodeOptionalInt(r.DangerLevel),
		strconv.Itoa(r.RainLevel),
	}
}

func encodeFloat(v float64) string {
	if IsAbsent(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func encodeOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func decodeRow(record []string) (Reading, error) {
	if len(record) != len(Header) {
		return Reading{}, fmt.Errorf("expected %d columns, got %d", len(Header), len(record))
	}

	ts, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("bad timestamp %q: %w", record[0], err)
	}

	// record[1] is the human-readable datetime; it is derived from the
	// timestamp on write and ignored on read.

	water, err := decodeFloat(record[2])
	if err != nil {
		return Reading{}, fmt.Errorf("bad water_level_cm %q: %w", record[2], err)
	}
	temp, err := decodeFloat(record[3])
	if err != nil {
		return Reading{}, fmt.Errorf("bad temperature_c %q: %w", record[3], err)
	}
	hum, err := decodeFloat(record[4])
	if err != nil {
		return Reading{}, fmt.Errorf("bad humidity_pct %q: %w", record[4], err)
	}

	var danger *int
	if record[5] != "" {
		d, err := strconv.Atoi(record[5])
		if err != nil {
			return Reading{}, fmt.Errorf("bad danger_level %q: %w", record[5], err)
		}
		danger = &d
	}

	rain := 0
	if record[6] != "" {
		rain, err = strconv.Atoi(record[6])
		if err != nil {
			return Reading{}, fmt.Errorf("bad rain_level %q: %w", record[6], err)
		}
	}

	return Reading{
		Timestamp:    ts,
		WaterLevelCM: water,
		TemperatureC: temp,
		HumidityPct:  hum,
		DangerLevel:  danger,
		RainLevel:    rain,
	}, nil
}

func decodeFloat(s string) (float64, error) {
	if s == "" {
		return Absent(), nil
	}
	return strconv.ParseFloat(s, 64)
}
