package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/telekom/careflow/pkg/emergency"
	"github.com/telekom/careflow/pkg/model"
	"github.com/telekom/careflow/pkg/validation"
)

func WriteValidationQueueTable(w io.Writer, items []validation.QueueItem) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "EPISODE\tPATIENT\tURGENCY\tSUPERVISOR\tQUEUED\tWAIT_MIN")
	for _, item := range items {
		supervisor := item.AssignedSupervisor
		if supervisor == "" {
			supervisor = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			item.EpisodeID, item.PatientID, item.UrgencyLevel, supervisor, formatTime(item.QueuedAt), item.WaitMinutes)
	}
	_ = tw.Flush()
}

func WriteEmergencyQueueTable(w io.Writer, entries []emergency.QueueEntry) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "EPISODE\tPATIENT\tSEVERITY\tSUPERVISORS\tWAIT_MIN")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			e.EpisodeID, e.PatientID, e.Severity, strings.Join(e.AssignedSupervisors, ","), e.WaitMinutes)
	}
	_ = tw.Flush()
}

func WriteEscalationTable(w io.Writer, escalations []model.EscalationProtocol) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ESCALATION\tEPISODE\tLEVEL\tSTATUS\tCREATED\tTIMEOUT_MIN\tSUPERVISORS")
	for _, e := range escalations {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.EscalationID, e.EpisodeID, e.Level, e.Status, formatTime(e.CreatedAt), e.TimeoutMinutes, strings.Join(e.AssignedSupervisors, ","))
	}
	_ = tw.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
