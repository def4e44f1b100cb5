// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package spreadsheet writes tabular agent output to .xlsx workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"
)

// Write replaces the workbook at path with a single sheet holding headers followed
// by rows.
func Write(path string, headers []string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := setRow(f, sheet, 1, toAny(headers)); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// Append adds rows below the last used row of the first sheet of the workbook at
// path. A missing workbook is created with headers as its first row. It returns
// the number of rows appended.
func Append(path string, headers []string, rows [][]any) (int, error) {
	f, next, err := openOrCreate(path, headers)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		if err := setRow(f, sheet, next+i, row); err != nil {
			return 0, err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("save workbook %s: %w", path, err)
	}
	return len(rows), nil
}

// ReadRows returns the cell values of the first sheet of the workbook at path.
func ReadRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return rows, nil
}

// openOrCreate returns the workbook at path and the first free row number.
func openOrCreate(path string, headers []string) (*excelize.File, int, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		f := excelize.NewFile()
		if err := setRow(f, f.GetSheetName(0), 1, toAny(headers)); err != nil {
			f.Close()
			return nil, 0, err
		}
		return f, 2, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open workbook %s: %w", path, err)
	}
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("read rows: %w", err)
	}
	return f, len(rows) + 1, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
