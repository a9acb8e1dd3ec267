package csvstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/LouYuanbo1/wikisearch/internal/domain/entity"
	"github.com/jszwec/csvutil"
)

// WriteTitles 写出 title 单列的 CSV,带表头
func WriteTitles(path string, titles []entity.MovieTitle) error {
	return writeFile(path, titles)
}

func ReadTitles(path string) ([]entity.MovieTitle, error) {
	return readFile[entity.MovieTitle](path)
}

// WriteArticles 写出 title,content 两列的 CSV,正文中的换行和引号按 RFC 4180 转义
func WriteArticles(path string, articles []entity.Article) error {
	return writeFile(path, articles)
}

func ReadArticles(path string) ([]entity.Article, error) {
	return readFile[entity.Article](path)
}

func writeFile[T any](path string, rows []T) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := Write(f, rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readFile[T any](path string) ([]T, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	rows, err := Read[T](f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

// Write 按 csv 标签写出表头和每一行. rows 为空时也会写表头
func Write[T any](w io.Writer, rows []T) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(rows) == 0 {
		var zero T
		if err := enc.EncodeHeader(zero); err != nil {
			return err
		}
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read 按表头匹配 csv 标签读取全部行,多余的列被忽略
func Read[T any](r io.Reader) ([]T, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header")
		}
		return nil, err
	}
	var rows []T
	for {
		var row T
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return rows, nil
			}
			return nil, fmt.Errorf("line %d: %w", len(rows)+2, err)
		}
		rows = append(rows, row)
	}
}
