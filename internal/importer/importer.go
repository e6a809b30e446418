// Package importer provides CSV and Excel import of order piece lists.
// It supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/OffcutReuse/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Pieces   []model.Piece
	Errors   []string
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	ID          int
	Label       int
	Width       int
	Height      int
	Area        int
	Perimeter   int
	AspectRatio int
	Complexity  int
	Quantity    int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":         {"id", "piece id", "part id", "code", "ref", "reference"},
	"label":      {"label", "name", "part", "part name", "description", "desc", "piece", "item"},
	"width":      {"width", "w", "length", "len", "x"},
	"height":     {"height", "h", "depth", "d", "y"},
	"area":       {"area", "area mm2", "sq mm"},
	"perimeter":  {"perimeter", "perim"},
	"aspect":     {"aspect", "aspect ratio", "ratio"},
	"complexity": {"complexity", "shape complexity"},
	"quantity":   {"quantity", "qty", "count", "num", "amount", "pcs", "pieces"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		// Only delimiters that split the first row count
		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or a default positional
// mapping (ID, Width, Height, Quantity) and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{
		ID:          -1,
		Label:       -1,
		Width:       -1,
		Height:      -1,
		Area:        -1,
		Perimeter:   -1,
		AspectRatio: -1,
		Complexity:  -1,
		Quantity:    -1,
	}
	slots := map[string]*int{
		"id":         &mapping.ID,
		"label":      &mapping.Label,
		"width":      &mapping.Width,
		"height":     &mapping.Height,
		"area":       &mapping.Area,
		"perimeter":  &mapping.Perimeter,
		"aspect":     &mapping.AspectRatio,
		"complexity": &mapping.Complexity,
		"quantity":   &mapping.Quantity,
	}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if slot := slots[role]; *slot == -1 {
					*slot = i
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{
			ID:          0,
			Label:       -1,
			Width:       1,
			Height:      2,
			Area:        -1,
			Perimeter:   -1,
			AspectRatio: -1,
			Complexity:  -1,
			Quantity:    3,
		}, false
	}

	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber reads an optional non-negative number. A blank cell yields
// 0 and ok=false; a malformed or negative value is an error.
func parseNumber(row []string, idx int, rowLabel, name string) (v float64, ok bool, errMsg string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	if v < 0 {
		return 0, false, fmt.Sprintf("%s: %s must not be negative", rowLabel, name)
	}
	return v, true, ""
}

// parseRow extracts the pieces of a row using the given column mapping. A
// row with quantity n expands into n pieces with ids <id>-1 .. <id>-n; a row
// without an id uses autoID.
// Returns the pieces, any error message, and any warnings.
func parseRow(row []string, mapping ColumnMapping, rowLabel, autoID string) ([]model.Piece, string, []string) {
	var warnings []string

	id := getCell(row, mapping.ID)
	if id == "" {
		id = autoID
	}
	label := getCell(row, mapping.Label)
	if label == "" {
		label = id
	}

	width, hasWidth, errMsg := parseNumber(row, mapping.Width, rowLabel, "width")
	if errMsg != "" {
		return nil, errMsg, nil
	}
	height, hasHeight, errMsg := parseNumber(row, mapping.Height, rowLabel, "height")
	if errMsg != "" {
		return nil, errMsg, nil
	}
	area, hasArea, errMsg := parseNumber(row, mapping.Area, rowLabel, "area")
	if errMsg != "" {
		return nil, errMsg, nil
	}
	perimeter, hasPerimeter, errMsg := parseNumber(row, mapping.Perimeter, rowLabel, "perimeter")
	if errMsg != "" {
		return nil, errMsg, nil
	}
	aspect, hasAspect, errMsg := parseNumber(row, mapping.AspectRatio, rowLabel, "aspect ratio")
	if errMsg != "" {
		return nil, errMsg, nil
	}
	complexity, hasComplexity, errMsg := parseNumber(row, mapping.Complexity, rowLabel, "complexity")
	if errMsg != "" {
		return nil, errMsg, nil
	}

	if !hasWidth {
		warnings = append(warnings, fmt.Sprintf("%s: Missing width, defaulting to 0", rowLabel))
	}
	if !hasHeight {
		warnings = append(warnings, fmt.Sprintf("%s: Missing height, defaulting to 0", rowLabel))
	}
	if !hasArea && width*height == 0 {
		warnings = append(warnings, fmt.Sprintf("%s: Missing area, defaulting to 0", rowLabel))
	}

	qty := 1
	if s := getCell(row, mapping.Quantity); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, s), nil
		}
		if n <= 0 {
			return nil, fmt.Sprintf("%s: Quantity must be positive", rowLabel), nil
		}
		qty = n
	}

	// Shape fields not given in the row are derived from the bounding box.
	base := model.NewRectPiece(id, width, height)
	base.Label = label
	if hasArea {
		base.Area = area
	}
	if hasPerimeter {
		base.Perimeter = perimeter
	}
	if hasAspect {
		base.AspectRatio = aspect
	}
	if hasComplexity {
		base.Complexity = complexity
	}
	if qty == 1 {
		return []model.Piece{base}, "", warnings
	}

	pieces := make([]model.Piece, qty)
	for n := range pieces {
		pieces[n] = base
		pieces[n].ID = fmt.Sprintf("%s-%d", id, n+1)
	}
	return pieces, "", warnings
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Import dispatches on the file extension: .csv/.txt go through ImportCSV,
// .xlsx/.xlsm through ImportExcel.
func Import(path string) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt", ".tsv":
		return ImportCSV(path)
	case ".xlsx", ".xlsm":
		return ImportExcel(path)
	default:
		return ImportResult{Errors: []string{fmt.Sprintf("Unsupported file type '%s'", filepath.Ext(path))}}
	}
}

// ImportCSV imports pieces from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports pieces from a CSV reader with a specific delimiter.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

// ImportExcel imports pieces from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into pieces.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		if mapping.Area == -1 && (mapping.Width == -1 || mapping.Height == -1) {
			result.Errors = append(result.Errors, "Required columns not found in header: Width and Height, or Area")
			return result
		}
	} else if len(rows[0]) >= 3 {
		// An unrecognised header still has a non-numeric width column
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	seen := make(map[string]bool)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		pieces, errMsg, warnings := parseRow(row, mapping, rowLabel, nextAutoID(seen, len(result.Pieces)))

		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		// A row is imported whole or not at all.
		if id := takenID(pieces, seen); id != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate piece id '%s'", rowLabel, id))
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)

		for _, p := range pieces {
			seen[p.ID] = true
		}
		result.Pieces = append(result.Pieces, pieces...)
	}

	return result
}

// nextAutoID returns the first free id of the form P<n>, starting after the
// pieces imported so far.
func nextAutoID(seen map[string]bool, count int) string {
	for n := count + 1; ; n++ {
		id := fmt.Sprintf("P%d", n)
		if !seen[id] {
			return id
		}
	}
}

// takenID returns the first id of pieces that is already in seen or repeats
// within pieces, or "" when all ids are new.
func takenID(pieces []model.Piece, seen map[string]bool) string {
	row := make(map[string]bool, len(pieces))
	for _, p := range pieces {
		if seen[p.ID] || row[p.ID] {
			return p.ID
		}
		row[p.ID] = true
	}
	return ""
}
