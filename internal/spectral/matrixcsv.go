package spectral

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"ssslverify/internal/fault"
)

// ReadMatrixCSV reads a square numeric matrix from a CSV artifact whose
// exact shape is not pinned: it may or may not carry a header row and may
// or may not carry a leading label column. Detection is a two-step
// heuristic:
//
//  1. if the first row is not fully numeric, treat it as a header;
//  2. if the first column of the first few data rows has no numeric cell,
//     treat it as a label column.
func ReadMatrixCSV(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &fault.MissingArtifact{Path: path}
		}
		return nil, fmt.Errorf("open matrix CSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, &fault.DataError{Reason: fmt.Sprintf("unreadable matrix CSV %s: %v", path, err)}
	}

	var rows [][]string
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		row := make([]string, len(rec))
		for i, c := range rec {
			row[i] = strings.TrimSpace(c)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, &fault.DataError{Reason: "empty matrix CSV: " + path}
	}

	dropHeader := numericCount(rows[0]) < len(rows[0])

	dropLabelCol := false
	if len(rows) > 1 {
		start := 0
		if dropHeader {
			start = 1
		}
		col0Numeric := 0
		for i := start; i < len(rows) && i < 6; i++ {
			if len(rows[i]) > 0 && isNumeric(rows[i][0]) {
				col0Numeric++
			}
		}
		dropLabelCol = col0Numeric == 0
	}

	data := rows
	if dropHeader {
		data = rows[1:]
	}

	var mat [][]float64
	for _, row := range data {
		cells := row
		if dropLabelCol && len(row) > 1 {
			cells = row[1:]
		}
		nums := make([]float64, 0, len(cells))
		for _, c := range cells {
			v, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return nil, &fault.DataError{Reason: "non-numeric cell in matrix CSV " + path + ": " + c}
			}
			nums = append(nums, v)
		}
		if len(nums) > 0 {
			mat = append(mat, nums)
		}
	}
	if len(mat) == 0 {
		return nil, &fault.DataError{Reason: "no numeric matrix rows in " + path}
	}
	for _, row := range mat {
		if len(row) != len(mat) {
			return nil, &fault.DataError{Reason: fmt.Sprintf("matrix CSV %s is not square: %dx%d", path, len(mat), len(row))}
		}
	}
	return mat, nil
}

func numericCount(row []string) int {
	n := 0
	for _, c := range row {
		if isNumeric(c) {
			n++
		}
	}
	return n
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
