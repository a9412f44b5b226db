package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rpggio/taskdesk/internal/controller"
	"github.com/rpggio/taskdesk/internal/domain/attendance"
	"github.com/rpggio/taskdesk/internal/domain/task"
	"github.com/rpggio/taskdesk/internal/domain/user"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func renderProfile(w io.Writer, source string, p user.Summary) {
	tw := newTable(w)
	fmt.Fprintf(tw, "%s\t%s <%s>\t%s\t%s\n", source, p.Name, p.Email, p.Role, p.ID)
	tw.Flush()
}

func renderBanner(w io.Writer, label string, b controller.Banner) {
	if b.IsZero() {
		return
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", b.Kind, label, b.Message)
}

func renderAdmin(w io.Writer, v controller.AdminView) error {
	fmt.Fprintf(w, "Admin dashboard (synced %s)\n", syncedAt(v.SyncedAt, v.Loading))
	renderBanner(w, "dashboard", v.Banner)

	members := v.Members()
	fmt.Fprintf(w, "\nUsers (%d)\n", len(members))
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL")
	for _, u := range members {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.ID, u.Name, u.Email)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTasks (%d)\n", len(v.Tasks))
	if err := renderTasks(w, v.Tasks, true); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nAttendance for %s\n", v.SelectedDate)
	renderBanner(w, "attendance", v.AttendanceBanner)
	return renderAttendance(w, v.Attendance)
}

func renderUser(w io.Writer, v controller.UserView) error {
	fmt.Fprintf(w, "%s's dashboard (synced %s)\n", v.Profile.Name, syncedAt(v.SyncedAt, v.Loading))
	renderBanner(w, "dashboard", v.Banner)

	c := v.Counts
	fmt.Fprintf(w, "\npending %d  accepted %d  in progress %d  completed %d\n",
		c.Pending, c.Accepted, c.InProgress, c.Completed)
	if err := renderTasks(w, v.Tasks, false); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nAttendance")
	return renderAttendance(w, v.Attendance)
}

func renderTasks(w io.Writer, tasks []task.Task, withAssignee bool) error {
	tw := newTable(w)
	if withAssignee {
		fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tASSIGNED TO")
	} else {
		fmt.Fprintln(tw, "ID\tSTATUS\tTITLE\tNOTES")
	}
	for _, t := range tasks {
		last := t.CompletionNotes
		if withAssignee {
			last = refLabel(t.AssignedTo)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Title, last)
	}
	return tw.Flush()
}

func renderAttendance(w io.Writer, records []attendance.Record) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "no records")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tUSER\tSTATUS")
	for _, r := range records {
		who := r.Name
		if who == "" {
			who = r.UserID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Date, who, r.Status)
	}
	return tw.Flush()
}

func refLabel(r user.Ref) string {
	switch {
	case r.Name != "":
		return r.Name
	case r.Email != "":
		return r.Email
	}
	return r.ID
}

func syncedAt(t time.Time, loading bool) string {
	if loading {
		return "loading"
	}
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(time.TimeOnly)
}
