package repository

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"phishguard/internal/config"
)

// SeedTerm is one categorical value read from a seed feed.
type SeedTerm struct {
	Axis  string
	Value string
}

// ParseAndStream reads a seed feed and emits its terms in file order.
// outChan is closed when the feed is exhausted.
func ParseAndStream(reader io.Reader, outChan chan<- SeedTerm, src config.SeedConfig) {
	defer close(outChan)

	switch src.Format {
	case "csv":
		parseCSV(reader, outChan, src)
	case "text":
		fallthrough
	default:
		parseText(reader, outChan, src)
	}
}

// TEXT format: one term per line, all of src.Axis
func parseText(reader io.Reader, outChan chan<- SeedTerm, src config.SeedConfig) {
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		outChan <- SeedTerm{Axis: src.Axis, Value: line}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Str("source", src.Name).Msg("seed read aborted")
	}
}

// CSV format: header aware, one term per configured column per row
func parseCSV(reader io.Reader, outChan chan<- SeedTerm, src config.SeedConfig) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		log.Error().Err(err).Str("source", src.Name).Msg("failed to read CSV header")
		return
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}

	// axes in a fixed order so a row always yields its terms the same way
	axes := make([]string, 0, len(src.Columns))
	for axis := range src.Columns {
		axes = append(axes, axis)
	}
	sort.Strings(axes)

	type target struct {
		axis string
		col  int
	}
	var targets []target
	for _, axis := range axes {
		col, ok := index[strings.ToLower(src.Columns[axis])]
		if !ok {
			log.Warn().Str("source", src.Name).Str("column", src.Columns[axis]).Msg("column not found in CSV")
			continue
		}
		targets = append(targets, target{axis: axis, col: col})
	}
	if len(targets) == 0 {
		return
	}

	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			log.Error().Err(err).Str("source", src.Name).Msg("seed read aborted")
			return
		}

		for _, t := range targets {
			if len(record) <= t.col {
				continue
			}
			value := strings.TrimSpace(record[t.col])
			if value != "" {
				outChan <- SeedTerm{Axis: t.axis, Value: value}
			}
		}
	}
}
