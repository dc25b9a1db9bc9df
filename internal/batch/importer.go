package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/readlevel/internal/store"
)

// ImportResult holds the result of an import.
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	IDs            []string
	Errors         []string
}

// columns maps header names to their index in a row.
type columns struct {
	title, content, source int
}

// Import reads articles from an .xlsx or .csv file whose first row names the
// columns. "title" and "content" are required; "source" is optional and
// defaults to the file name. Rows without content are skipped. Imported
// articles start unclassified.
func Import(ctx context.Context, articles store.ArticleRepo, path string) (*ImportResult, error) {
	var rows [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported import file %q: want .xlsx or .csv", filepath.Base(path))
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no header row", filepath.Base(path))
	}

	cols, err := parseHeader(rows[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		rowNum := i + 2
		if blank(row) {
			continue
		}
		result.TotalProcessed++

		content := cell(row, cols.content)
		if content == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: empty content", rowNum))
			continue
		}
		source := cell(row, cols.source)
		if source == "" {
			source = filepath.Base(path)
		}
		a := &store.Article{
			ID:      uuid.NewString(),
			Title:   cell(row, cols.title),
			Content: content,
			Source:  source,
		}
		if err := articles.Create(ctx, a); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		result.Created++
		result.IDs = append(result.IDs, a.ID)
	}
	return result, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseHeader(header []string) (columns, error) {
	cols := columns{title: -1, content: -1, source: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "title":
			cols.title = i
		case "content", "text":
			cols.content = i
		case "source":
			cols.source = i
		}
	}
	if cols.title < 0 || cols.content < 0 {
		return cols, fmt.Errorf("header must name title and content columns, got %q", header)
	}
	return cols, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
