package telemetry

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Parser reads lap telemetry files for replay into a running engine.
type Parser struct {
	format string
}

// NewParser creates a parser for the given file format ("csv" or "json").
func NewParser(format string) *Parser {
	return &Parser{format: format}
}

// ParseFile parses a lap telemetry file into samples in file order.
func (p *Parser) ParseFile(filename string) ([]Sample, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(p.format) {
	case "csv":
		return p.parseCSV(file)
	case "json":
		return p.parseJSONLines(file)
	default:
		return nil, fmt.Errorf("unsupported format: %s", p.format)
	}
}

// parseCSV parses CSV lap telemetry. The header must carry a distance and a
// speed column; "lap_distance_m"/"distance" and "speed_kph"/"speed" are
// accepted so files exported straight from session data load unchanged.
func (p *Parser) parseCSV(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable fields

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	distIdx, speedIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lap_distance_m", "distance":
			distIdx = i
		case "speed_kph", "speed":
			speedIdx = i
		}
	}
	if distIdx < 0 || speedIdx < 0 {
		return nil, fmt.Errorf("header must contain distance and speed columns, got %v", header)
	}

	var results []Sample
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return results, fmt.Errorf("error at line %d: %w", lineNum, err)
		}
		lineNum++

		if distIdx >= len(record) || speedIdx >= len(record) {
			fmt.Printf("Warning: line %d: insufficient fields\n", lineNum)
			continue
		}

		dist, err := strconv.ParseFloat(strings.TrimSpace(record[distIdx]), 64)
		if err != nil {
			fmt.Printf("Warning: line %d: invalid distance: %v\n", lineNum, err)
			continue
		}
		speed, err := strconv.ParseFloat(strings.TrimSpace(record[speedIdx]), 64)
		if err != nil {
			fmt.Printf("Warning: line %d: invalid speed: %v\n", lineNum, err)
			continue
		}

		results = append(results, Sample{LapDistanceM: dist, SpeedKPH: speed})
	}

	return results, nil
}

// parseJSONLines parses newline-delimited JSON samples.
func (p *Parser) parseJSONLines(r io.Reader) ([]Sample, error) {
	var results []Sample
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "[" || line == "]" {
			continue
		}

		// Remove trailing comma if present
		line = strings.TrimSuffix(line, ",")

		var s Sample
		if err := json.Unmarshal([]byte(line), &s); err != nil {
			fmt.Printf("Warning: line %d: %v\n", lineNum, err)
			continue
		}
		results = append(results, s)
	}

	return results, scanner.Err()
}
