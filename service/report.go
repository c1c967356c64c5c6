package service

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"expensetracker/models"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ReportRow 报表中的一行
type ReportRow struct {
	Date        string
	Category    string
	Description string
	Amount      string
}

var reportHeaders = []string{"Date", "Category", "Description", "Amount"}

// MonthlyReportTitle 报表标题
func MonthlyReportTitle(month, year int) string {
	return fmt.Sprintf("Expense Report - %d/%d", month, year)
}

// MonthlyReportFilename PDF 文件名
func MonthlyReportFilename(month, year int) string {
	return fmt.Sprintf("MonthlyReport_%d_%d.pdf", month, year)
}

// MonthlyReportExcelFilename Excel 文件名
func MonthlyReportExcelFilename(month, year int) string {
	return fmt.Sprintf("MonthlyReport_%d_%d.xlsx", month, year)
}

// FormatCurrency 金额格式化为带千分位的两位小数
func FormatCurrency(symbol string, amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, _ := strconv.ParseInt(whole, 10, 64)
	p := message.NewPrinter(language.English)
	s := symbol + p.Sprintf("%d", n) + "." + frac
	if amount.Round(2).IsNegative() {
		return "-" + s
	}
	return s
}

// BuildReportRows 按传入顺序生成报表行
func BuildReportRows(expenses []models.Expense, currencySymbol string) []ReportRow {
	rows := make([]ReportRow, 0, len(expenses))
	for _, e := range expenses {
		category := e.CategoryLabel()
		if category == "" {
			category = "N/A"
		}
		description := e.Description
		if description == "" {
			description = "-"
		}
		rows = append(rows, ReportRow{
			Date:        e.Date.Format("2006-01-02"),
			Category:    category,
			Description: description,
			Amount:      FormatCurrency(currencySymbol, e.Amount),
		})
	}
	return rows
}

// RenderMonthlyReportPDF 生成分页表格 PDF，每页重复标题和表头
func RenderMonthlyReportPDF(expenses []models.Expense, title, currencySymbol string) ([]byte, error) {
	rows := BuildReportRows(expenses, currencySymbol)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colWidth := (pageWidth - left - right) / float64(len(reportHeaders))
	const rowHeight = 7.0

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 20)
		pdf.SetTextColor(33, 150, 243)
		pdf.CellFormat(0, 12, tr(title), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFillColor(238, 242, 247)
		for _, h := range reportHeaders {
			pdf.CellFormat(colWidth, rowHeight, h, "B", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		for _, text := range []string{r.Date, r.Category, r.Description, r.Amount} {
			pdf.CellFormat(colWidth, rowHeight, fitText(pdf, tr, text, colWidth-2), "", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("生成 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// fitText 将 UTF-8 文本转换为字体编码，超出列宽时按字符截断并加省略号
func fitText(pdf *fpdf.Fpdf, tr func(string) string, text string, width float64) string {
	encoded := tr(text)
	if pdf.GetStringWidth(encoded) <= width {
		return encoded
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		encoded = tr(string(runes) + "...")
		if pdf.GetStringWidth(encoded) <= width {
			return encoded
		}
	}
	return tr("...")
}

// RenderMonthlyReportExcel 生成与 PDF 同列的 Excel 报表，末尾附合计行
func RenderMonthlyReportExcel(expenses []models.Expense, title, currencySymbol string) ([]byte, error) {
	rows := BuildReportRows(expenses, currencySymbol)

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Report"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16, Color: "2196F3"},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
	})

	f.SetColWidth(sheetName, "A", "A", 14)
	f.SetColWidth(sheetName, "B", "B", 22)
	f.SetColWidth(sheetName, "C", "C", 40)
	f.SetColWidth(sheetName, "D", "D", 16)

	f.SetCellValue(sheetName, "A1", title)
	f.SetCellStyle(sheetName, "A1", "A1", titleStyle)
	f.MergeCell(sheetName, "A1", "D1")

	for i, header := range reportHeaders {
		cell := fmt.Sprintf("%c2", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, r := range rows {
		row := i + 3
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.Date)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.Amount)
	}

	summaryRow := len(rows) + 3
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "Total")
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", summaryRow), fmt.Sprintf("%d expenses", len(rows)))
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", summaryRow), FormatCurrency(currencySymbol, Sum(expenses)))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("D%d", summaryRow), summaryStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("生成 Excel 失败: %w", err)
	}
	return buf.Bytes(), nil
}
