package httpapi

import (
	"bytes"
	"fmt"

	"goldwatch-alarm/internal/models"

	"github.com/xuri/excelize/v2"
)

// AlarmExportHeader 已触发报警导出表头
var AlarmExportHeader = []string{
	"Alarm ID",
	"Device ID",
	"Product Code",
	"Product Name",
	"Price Side",
	"Condition",
	"Target Price",
	"Created At",
	"Triggered At",
}

// GenerateAlarmExport 生成已触发报警导出 Excel 文件
func GenerateAlarmExport(alarms []models.Alarm) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Triggered Alarms"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 写入表头
	for col, header := range AlarmExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 列宽
	columnWidths := []float64{
		38, // Alarm ID
		38, // Device ID
		15, // Product Code
		25, // Product Name
		12, // Price Side
		15, // Condition
		15, // Target Price
		20, // Created At
		20, // Triggered At
	}
	for i := range AlarmExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// 写入数据
	for rowIdx, alarm := range alarms {
		row := rowIdx + 2 // 从第2行开始（第1行是表头）
		triggeredAt := ""
		if alarm.TriggeredAt != nil {
			triggeredAt = alarm.TriggeredAt.Format("2006-01-02 15:04:05")
		}
		values := []any{
			alarm.AlarmID,
			alarm.DeviceID,
			alarm.ProductCode,
			alarm.ProductName,
			alarm.PriceSide,
			alarm.Condition,
			alarm.TargetPrice,
			alarm.CreatedAt.Format("2006-01-02 15:04:05"),
			triggeredAt,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, col+1, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}
