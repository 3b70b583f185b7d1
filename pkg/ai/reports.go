package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rootstofarm.com/market/go-api/pkg/models"
)

// FarmSnapshot is what a farm insights report is built from.
type FarmSnapshot struct {
	FarmName string                 `json:"farmName"`
	Stats    *models.DashboardStats `json:"stats"`
	LowStock []LowStockItem         `json:"lowStock"`
}

type LowStockItem struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
	Unit  string `json:"unit"`
}

// Report is the farmer dashboard insights response.
type Report struct {
	Status      string     `json:"status"`
	Data        ReportData `json:"data"`
	GeneratedAt time.Time  `json:"generatedAt"`
	AIEnabled   bool       `json:"aiEnabled"`
}

type ReportData struct {
	RawData    *FarmSnapshot `json:"rawData"`
	AIInsights string        `json:"aiInsights,omitempty"`
	Summary    string        `json:"summary"`
	Error      string        `json:"error,omitempty"`
}

// FarmInsights always returns the snapshot; the narrative is added when the
// AI service is enabled and answers.
func (c *Client) FarmInsights(ctx context.Context, snapshot *FarmSnapshot) *Report {
	report := &Report{
		Status:      "success",
		GeneratedAt: time.Now(),
		AIEnabled:   c.Enabled(),
		Data: ReportData{
			RawData: snapshot,
			Summary: "Raw farm data (AI insights unavailable)",
		},
	}
	if !c.Enabled() {
		return report
	}

	insights, err := c.complete(ctx, FarmInsightsSystemPrompt, farmPrompt(snapshot))
	if err != nil {
		report.Data.Error = "AI analysis failed: " + err.Error()
		return report
	}
	report.Data.AIInsights = insights
	report.Data.Summary = "AI-generated farm insights and recommendations"
	return report
}

func farmPrompt(snapshot *FarmSnapshot) string {
	jsonData, _ := json.MarshalIndent(snapshot, "", "  ")
	return fmt.Sprintf(`Here is the dashboard of %s:

%s

Please provide:
1. Which products to restock first
2. What the recent orders say about demand
3. Actions for the coming week`, snapshot.FarmName, string(jsonData))
}
