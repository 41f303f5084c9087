package report

import (
	"bytes"
	"fmt"
	"text/template"

	"etlcli/internal/files"
	"etlcli/internal/sheets"
	"etlcli/pkg/contracts/domain"
)

var macroTemplate = template.Must(template.New("macro").Parse(`Attribute VB_Name = "ReportAutomation"
Option Explicit

Sub AutomateReport()
    ' Formats the active sheet, then adds a pivot table and a chart
    Dim ws As Worksheet
    Dim lastRow As Long
    Dim dataRange As Range

    Set ws = ActiveSheet
    lastRow = ws.Cells(ws.Rows.Count, "A").End(xlUp).Row
    Set dataRange = ws.Range("A1:Z" & lastRow)

    Call FormatData(dataRange)
    Call CreatePivotTable(dataRange)
    Call GenerateCharts(dataRange)

    MsgBox "Report generated.", vbInformation
End Sub

Sub FormatData(dataRange As Range)
    With dataRange
        .Font.Name = "Calibri"
        .Font.Size = 11
        .Borders.LineStyle = xlContinuous
        .Borders.Weight = xlThin
    End With

    With dataRange.Rows(1)
        .Font.Bold = True
        .Interior.Color = RGB({{.Header.R}}, {{.Header.G}}, {{.Header.B}})
        .Font.Color = RGB(255, 255, 255)
        .HorizontalAlignment = xlCenter
    End With

    dataRange.Columns.AutoFit
End Sub

Sub CreatePivotTable(dataRange As Range)
    Dim pt As PivotTable
    Dim pc As PivotCache
    Dim newWs As Worksheet

    Set newWs = Worksheets.Add
    newWs.Name = "Pivot_" & Format(Now, "hhmmss")

    Set pc = ActiveWorkbook.PivotCaches.Create( _
        SourceType:=xlDatabase, _
        SourceData:=dataRange)

    Set pt = pc.CreatePivotTable( _
        TableDestination:=newWs.Range("A1"), _
        TableName:="ReportPivot")

    With pt
        .PivotFields("{{.Department}}").Orientation = xlRowField
        .PivotFields("{{.Category}}").Orientation = xlRowField
        .AddDataField .PivotFields("{{.Amount}}"), "Sum of {{.Amount}}", xlSum
        .DataFields("Sum of {{.Amount}}").NumberFormat = "{{.MoneyFormat}}"
    End With
End Sub

Sub GenerateCharts(dataRange As Range)
    Dim chartObj As ChartObject
    Dim newWs As Worksheet

    Set newWs = Worksheets.Add
    newWs.Name = "Charts_" & Format(Now, "hhmmss")

    Set chartObj = newWs.ChartObjects.Add(50, 50, 400, 300)
    With chartObj.Chart
        .SetSourceData dataRange
        .ChartType = xlColumnClustered
        .HasTitle = True
        .ChartTitle.Text = "Data Analysis - " & Format(Now, "yyyy-mm-dd")
        .Axes(xlCategory, xlPrimary).HasTitle = True
        .Axes(xlCategory, xlPrimary).AxisTitle.Text = "{{.Department}}"
        .Axes(xlValue, xlPrimary).HasTitle = True
        .Axes(xlValue, xlPrimary).AxisTitle.Text = "{{.Amount}}"
    End With
End Sub

Sub ExportToPDF()
    Dim fileName As String
    fileName = ThisWorkbook.Path & Application.PathSeparator & "Report_" & Format(Now, "yyyy-mm-dd_hhmmss") & ".pdf"

    ActiveSheet.ExportAsFixedFormat _
        Type:=xlTypePDF, _
        fileName:=fileName, _
        Quality:=xlQualityStandard, _
        IncludeDocProps:=True, _
        IgnorePrintAreas:=False, _
        OpenAfterPublish:=True

    MsgBox "Report exported to: " & fileName, vbInformation
End Sub

Sub RefreshData()
    Dim conn As WorkbookConnection
    Dim pt As PivotTable

    For Each conn In ThisWorkbook.Connections
        conn.Refresh
    Next conn

    For Each pt In ActiveSheet.PivotTables
        pt.RefreshTable
    Next pt

    MsgBox "Data refreshed.", vbInformation
End Sub
`))

type rgb struct{ R, G, B uint8 }

type macroData struct {
	Header      rgb
	Department  string
	Category    string
	Amount      string
	MoneyFormat string
}

// Macro renders the VBA automation module for workbooks laid out with schema
// column names.
func Macro(schema domain.Schema) (string, error) {
	header, err := parseHex(sheets.HeaderFill)
	if err != nil {
		return "", err
	}
	data := macroData{
		Header:      header,
		Department:  schema.Columns.Name(domain.RoleDepartment),
		Category:    schema.Columns.Name(domain.RoleCategory),
		Amount:      schema.Columns.Name(domain.RoleAmount),
		MoneyFormat: `R$ #,##0.00`,
	}
	var buf bytes.Buffer
	if err := macroTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render macro: %w", err)
	}
	return buf.String(), nil
}

// WriteMacro renders the macro and publishes it at path.
func WriteMacro(path string, schema domain.Schema) error {
	text, err := Macro(schema)
	if err != nil {
		return err
	}
	out, staged, err := files.CreateStaged(path)
	if err != nil {
		return err
	}
	if _, err := out.WriteString(text); err != nil {
		out.Close()
		staged.Rollback()
		return err
	}
	if err := out.Close(); err != nil {
		staged.Rollback()
		return err
	}
	return staged.Commit()
}

func parseHex(s string) (rgb, error) {
	var c rgb
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return c, nil
}
