// 数值 CSV 与矩阵之间的读写, 逗号分隔, '#' 开头的行视为注释
package fileUtils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"svca/infra/errorx"
	"svca/infra/errorx/errCode"
)

// ReadMatrix 每行一个观测, 每列一个特征; 首行若无法解析为数字则当作表头跳过
func ReadMatrix(r io.Reader) (*mat.Dense, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errorx.New(errCode.EMPTY_VALUE, "csv has no numeric rows")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errorx.Newf(errCode.SHAPE_MISMATCH, "row %d has %d columns, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// ReadVector 单列或单行均可
func ReadVector(r io.Reader) ([]float64, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, err
	}
	switch {
	case len(rows) == 0:
		return nil, errorx.New(errCode.EMPTY_VALUE, "csv has no numeric rows")
	case len(rows) == 1:
		return rows[0], nil
	}
	out := make([]float64, len(rows))
	for i, row := range rows {
		if len(row) != 1 {
			return nil, errorx.Newf(errCode.SHAPE_MISMATCH, "vector csv row %d has %d columns", i, len(row))
		}
		out[i] = row[0]
	}
	return out, nil
}

func WriteMatrix(w io.Writer, m mat.Matrix) error {
	cw := csv.NewWriter(w)
	r, c := m.Dims()
	rec := make([]string, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			rec[j] = strconv.FormatFloat(m.At(i, j), 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return errorx.Wrap(errCode.IO_FAILED, "write csv", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errorx.Wrap(errCode.IO_FAILED, "flush csv", err)
	}
	return nil
}

func ReadMatrixFile(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errorx.Wrap(errCode.IO_FAILED, fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()
	return ReadMatrix(f)
}

func ReadVectorFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errorx.Wrap(errCode.IO_FAILED, fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()
	return ReadVector(f)
}

func WriteMatrixFile(path string, m mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return errorx.Wrap(errCode.IO_FAILED, fmt.Sprintf("create %s", path), err)
	}
	defer f.Close()
	if err := WriteMatrix(f, m); err != nil {
		return err
	}
	return f.Close()
}

func readRows(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]float64
	for line := 0; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errorx.Wrap(errCode.IO_FAILED, "read csv", err)
		}
		row, err := parseRecord(rec)
		if err != nil {
			// 首行允许是表头
			if line == 0 {
				continue
			}
			return nil, errorx.Wrap(errCode.INVALID_VALUE, fmt.Sprintf("csv record %d", line+1), err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseRecord(rec []string) ([]float64, error) {
	row := make([]float64, len(rec))
	for j, s := range rec {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, err
		}
		row[j] = v
	}
	return row, nil
}
