package cmd

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/psds-microservice/workflow-service/internal/config"
	"github.com/psds-microservice/workflow-service/internal/database"
	"github.com/psds-microservice/workflow-service/internal/model"
	"github.com/psds-microservice/workflow-service/internal/sla"
	"github.com/spf13/cobra"
)

var slaReportCmd = &cobra.Command{
	Use:   "sla-report",
	Short: "Print breached and at-risk open tickets",
	RunE:  runSLAReport,
}

func init() {
	rootCmd.AddCommand(slaReportCmd)
}

func runSLAReport(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	var tickets []model.SupportTicket
	if err := conn.Where("status IN ?", []model.TicketStatus{
		model.TicketStatusPending,
		model.TicketStatusInProgress,
	}).Order("created_at ASC").Find(&tickets).Error; err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}

	now := time.Now()
	var breached, atRisk int
	for i := range tickets {
		t := &tickets[i]
		switch sla.Classify(t, now) {
		case sla.ComplianceBreach:
			breached++
			fmt.Printf("BREACHED  #%d %-40q assignee=%s open=%.1fh target=%.0fh\n",
				t.ID, t.Title, orUnassigned(t.AssigneeID), sla.HoursOpen(t, now), t.SLATargetHours)
		case sla.ComplianceAtRisk:
			atRisk++
			fmt.Printf("AT RISK   #%d %-40q assignee=%s breach in %s\n",
				t.ID, t.Title, orUnassigned(t.AssigneeID), sla.TimeToBreach(t, now).Round(time.Minute))
		}
	}
	fmt.Printf("open=%d breached=%d at_risk=%d\n", len(tickets), breached, atRisk)
	return nil
}

func orUnassigned(id string) string {
	if id == "" {
		return "(unassigned)"
	}
	return id
}
