package activityControllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"

	"github.com/adilind/coffee-shop-api/controllers/respond"
	"github.com/adilind/coffee-shop-api/services"
)

// parseRange reads optional from/to query params as RFC 3339 timestamps.
func parseRange(c *gin.Context) (from, to *time.Time, err error) {
	if raw := c.Query("from"); raw != "" {
		t, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return nil, nil, parseErr
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, parseErr := time.Parse(time.RFC3339, raw)
		if parseErr != nil {
			return nil, nil, parseErr
		}
		to = &t
	}
	return from, to, nil
}

// GET /admin/activity?username_prefix=&from=&to=
func QueryActivity(svc *services.ActivityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := parseRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be RFC 3339 timestamps"})
			return
		}

		entries, err := svc.Query(c.Request.Context(), c.Query("username_prefix"), from, to)
		if err != nil {
			respond.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

// GET /admin/activity/export takes the same filter, rendered as a spreadsheet.
func ExportActivityToExcel(svc *services.ActivityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := parseRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from/to must be RFC 3339 timestamps"})
			return
		}

		entries, err := svc.Query(c.Request.Context(), c.Query("username_prefix"), from, to)
		if err != nil {
			respond.Error(c, err)
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Activity")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{"ID", "UserID", "Username", "ActivityType", "Details", "Timestamp", "SourceAddress"}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, e := range entries {
			row := sheet.AddRow()
			row.AddCell().SetValue(int(e.ID))
			row.AddCell().SetValue(e.UserID)
			row.AddCell().SetValue(e.Username)
			row.AddCell().SetValue(string(e.ActivityType))
			details, _ := json.Marshal(e.Details)
			row.AddCell().SetValue(string(details))
			row.AddCell().SetValue(e.Timestamp.Format("2006-01-02 15:04:05"))
			row.AddCell().SetValue(e.SourceAddress)
		}

		c.Header("Content-Disposition", "attachment; filename=activity.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")

		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
			return
		}
	}
}
