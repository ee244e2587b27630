package model

type Employee struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

type TimeEntryRequest struct {
	Date          string  `json:"date" binding:"required"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	LunchDuration float64 `json:"lunch_duration"`
	IsFreeDay     bool    `json:"is_free_day"`
	Notes         string  `json:"notes"`
}

type AdvanceRequest struct {
	Employee string  `json:"employee" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	Currency string  `json:"currency" binding:"required"`
	Option   string  `json:"option" binding:"required"`
	Date     string  `json:"date" binding:"required"`
}

type SelectionRequest struct {
	Employees []string `json:"employees"`
}

type AddEmployeeRequest struct {
	Name string `json:"name" binding:"required"`
}

type RenameEmployeeRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

type RenameFileRequest struct {
	OldName string `json:"old_name" binding:"required"`
	NewName string `json:"new_name" binding:"required"`
}

type VoiceCommandRequest struct {
	Text string `json:"text" binding:"required"`
}

type UploadConfirmRequest struct {
	Token string `json:"token" binding:"required"`
}

// WeekGrid is the preview of a week sheet for the main page.
type WeekGrid struct {
	SheetName string     `json:"sheet_name"`
	Data      [][]string `json:"data"`
	Rows      int        `json:"rows"`
	Cols      int        `json:"cols"`
}

// MonthEmployee aggregates one employee over the weekly sheets of a month.
type MonthEmployee struct {
	TotalHours float64 `json:"total_hours"`
	FreeDays   int     `json:"free_days"`
}

type MonthlySummary struct {
	Month             int     `json:"month"`
	Year              int     `json:"year"`
	MonthName         string  `json:"month_name"`
	TotalHours        float64 `json:"total_hours"`
	TotalOvertime     float64 `json:"total_overtime"`
	TotalAllEmployees float64 `json:"total_all_employees"`
	SheetName         string  `json:"sheet_name"`
}

type DailyRecord struct {
	Date              string  `json:"date"`
	Day               int     `json:"day"`
	Row               int     `json:"row"`
	SheetName         string  `json:"sheet_name"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time"`
	LunchHours        float64 `json:"lunch_hours"`
	TotalHours        float64 `json:"total_hours"`
	Overtime          float64 `json:"overtime"`
	NumEmployees      int     `json:"num_employees"`
	TotalAllEmployees float64 `json:"total_all_employees"`
}

type IntegrityReport struct {
	Valid          bool     `json:"valid"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
	SheetsChecked  int      `json:"sheets_checked"`
	RecordsChecked int      `json:"records_checked"`
}
