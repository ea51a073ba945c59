package file

import (
	"bufio"
	"context"
	"os"

	"github.com/JoeShih716/go-bank-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-bank-ledger/pkg/wal"
)

// TextExporter 交易紀錄的純文字匯出，一筆交易一行
type TextExporter struct{}

func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

// Append 將多行附加到檔案尾端，不存在則建立
//
// 參數:
//
//	ctx: 上下文
//	path: 檔案路徑
//	lines: 要寫入的行 (不含換行)
//
// 回傳:
//
//	error: 寫入錯誤
func (e *TextExporter) Append(ctx context.Context, path string, lines []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, wal.FileModeReadOnly)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read 讀回檔案所有行，只供顯示，不會還原到 Bank
func (e *TextExporter) Read(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

var _ usecase.TransactionExporter = (*TextExporter)(nil)
