package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/RohitKattimani/MedReadApp/internal/models"
	"github.com/RohitKattimani/MedReadApp/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

type ResultsHandler struct {
	log *zap.Logger
}

func NewResultsHandler(log *zap.Logger) *ResultsHandler {
	return &ResultsHandler{log: log}
}

// ExportCSV streams a session's responses and summary as a CSV attachment.
func (h *ResultsHandler) ExportCSV(c *gin.Context) {
	user := CurrentUser(c)

	session, err := repository.GetReadingSession(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		h.log.Error("Failed to fetch session for export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not export session"})
		return
	}

	responses, err := repository.ResponsesForSession(c.Request.Context(), session.ID)
	if err != nil {
		h.log.Error("Failed to fetch responses for export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not export session"})
		return
	}

	csv := BuildSessionCSV(session, responses)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=session_%s.csv", session.ID))
	c.Data(http.StatusOK, "text/csv", []byte(csv))
}

// BuildSessionCSV renders the per-response rows followed by a summary block.
func BuildSessionCSV(session *models.ReadingSession, responses []models.SessionResponse) string {
	lines := []string{"Image ID,Your Diagnosis,Actual Category,Correct,Time (ms)"}
	for _, r := range responses {
		lines = append(lines, fmt.Sprintf("%s,%s,%s,%t,%d",
			r.ImageID, r.UserDiagnosis, r.ActualCategory, r.IsCorrect, r.TimeTakenMs))
	}

	lines = append(lines, "", "SUMMARY")
	lines = append(lines, fmt.Sprintf("Total Images,%d", session.ImagesReviewed))
	lines = append(lines, fmt.Sprintf("Correct,%d", session.CorrectCount))
	lines = append(lines, fmt.Sprintf("Accuracy,%.1f%%", session.Accuracy()))

	var avgTime float64
	if session.ImagesReviewed > 0 {
		avgTime = float64(session.TotalTimeMs) / float64(session.ImagesReviewed)
	}
	lines = append(lines, fmt.Sprintf("Avg Time (ms),%.0f", avgTime))

	return strings.Join(lines, "\n")
}

// HistoryChart renders an HTML page with the user's accuracy and speed over
// completed sessions plus per-category accuracy.
func (h *ResultsHandler) HistoryChart(c *gin.Context) {
	user := CurrentUser(c)
	ctx := c.Request.Context()

	accuracy, err := repository.GetAccuracyTimeline(ctx, user.ID)
	if err != nil {
		h.log.Error("Failed to get accuracy timeline", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load chart data")
		return
	}
	avgTime, err := repository.GetAverageTimeTimeline(ctx, user.ID)
	if err != nil {
		h.log.Error("Failed to get time timeline", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load chart data")
		return
	}
	byCategory, err := repository.GetCategoryAccuracy(ctx, user.ID)
	if err != nil {
		h.log.Error("Failed to get category accuracy", zap.Error(err))
		c.String(http.StatusInternalServerError, "Failed to load chart data")
		return
	}

	page := components.NewPage()
	page.SetPageTitle("MedRead Session History")
	page.AddCharts(
		generateTimelineChart(accuracy, "Accuracy (%)", "Accuracy Over Sessions"),
		generateTimelineChart(avgTime, "Avg Time per Image (ms)", "Reading Speed Over Sessions"),
		generateCategoryChart(byCategory),
	)

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(c.Writer); err != nil {
		h.log.Error("Failed to render history chart", zap.Error(err))
	}
}

func generateTimelineChart(data []repository.TimelineDataPoint, metricLabel, title string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: metricLabel,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	items := make([]opts.LineData, 0)
	for _, point := range data {
		items = append(items, opts.LineData{Value: []interface{}{point.Date, point.Value}})
	}

	line.AddSeries(metricLabel, items).SetSeriesOptions(charts.WithLineStyleOpts(opts.LineStyle{Width: 2}))
	return line
}

func generateCategoryChart(data []repository.CategoryAccuracyPoint) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Accuracy by Category",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Name: "accuracy %",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	categories := make([]string, 0, len(data))
	items := make([]opts.BarData, 0, len(data))
	for _, point := range data {
		categories = append(categories, point.Category)
		items = append(items, opts.BarData{Value: point.Accuracy})
	}

	bar.SetXAxis(categories).AddSeries("Accuracy", items)
	return bar
}
