package export

import (
	"fmt"
	"io"

	"styledecor/internal/models"

	"github.com/xuri/excelize/v2"
)

// SheetName лист с заявками в выгрузке
const SheetName = "Bookings"

var header = []string{
	"ID", "Created", "Customer", "Email", "Phone", "Location", "Service",
	"Quantity", "Total", "Payment Status", "Transaction", "Decorator", "Stage",
}

// WriteBookingsXLSX пишет заявки одной таблицей в w
func WriteBookingsXLSX(w io.Writer, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}

	for col, title := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(SheetName, cell, title)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	_ = f.SetCellStyle(SheetName, "A1", lastCol+"1", headStyle)

	for i, b := range bookings {
		row := i + 2
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", row), &[]any{
			b.ID,
			b.CreatedAt.UTC().Format("2006-01-02 15:04"),
			b.Name,
			b.Email,
			b.Phone,
			b.Location,
			b.ServiceTitle,
			b.Quantity,
			b.TotalPrice,
			b.PaymentStatus,
			b.TransactionID,
			decoratorCell(b.Decorator),
			b.Stage().String(),
		}); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 38)
	_ = f.SetColWidth(SheetName, "B", lastCol, 18)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func decoratorCell(d models.DecoratorRef) string {
	switch {
	case d.Assigned():
		return d.Email
	case d.Pending():
		return models.DecoratorPending
	default:
		return ""
	}
}
