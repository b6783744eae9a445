package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"mcpctl/internal/backup"
	"mcpctl/internal/cleanup"
	"mcpctl/internal/reconcile"
	"mcpctl/internal/registry"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

// ServersTable renders registered servers as a table.
func ServersTable(servers []registry.Server) string {
	if len(servers) == 0 {
		return "No servers registered"
	}

	t := newTable()
	t.AppendHeader(table.Row{"NAME", "TYPE", "STATUS", "LOCATION", "UPDATED"})
	for _, server := range servers {
		status := "enabled"
		if server.Disabled {
			status = text.FgYellow.Sprint("disabled")
		}
		location := ""
		if local, ok := server.AsLocal(); ok {
			location = local.SourceDir
			if local.Port > 0 {
				location = fmt.Sprintf("%s (port %d)", location, local.Port)
			}
		} else if remote, ok := server.AsRemote(); ok {
			location = remote.URL
		}
		t.AppendRow(table.Row{server.Name, server.Type, status, location, server.UpdatedAt.Format("2006-01-02 15:04:05")})
	}
	return t.Render()
}

// BackupsTable renders backups newest-first as a table.
func BackupsTable(backups []backup.BackupInfo) string {
	if len(backups) == 0 {
		return "No backups found"
	}

	t := newTable()
	t.AppendHeader(table.Row{"TIMESTAMP", "TYPE", "PATH"})
	for _, b := range backups {
		t.AppendRow(table.Row{b.Timestamp.Format("2006-01-02 15:04:05"), b.ConfigType, b.Path})
	}
	return t.Render()
}

// CleanupTable renders a cleanup result as a table.
func CleanupTable(result *cleanup.Result, dryRun bool) string {
	t := newTable()
	if dryRun {
		t.AppendHeader(table.Row{"WOULD REMOVE", "SIZE (MB)"})
		for _, item := range result.WouldRemove {
			t.AppendRow(table.Row{item.Path, fmt.Sprintf("%.2f", item.SizeMB)})
		}
	} else {
		t.AppendHeader(table.Row{"REMOVED", "SIZE (MB)"})
		for _, item := range result.Removed {
			t.AppendRow(table.Row{item.Path, fmt.Sprintf("%.2f", item.SizeMB)})
		}
		for _, failed := range result.Failed {
			t.AppendRow(table.Row{text.FgRed.Sprintf("FAILED %s", failed.Path), failed.Err.Error()})
		}
	}
	t.AppendFooter(table.Row{"TOTAL", fmt.Sprintf("%.2f", result.TotalSizeMB)})
	return t.Render()
}

// OrphansTable renders orphaned artifacts as a table.
func OrphansTable(orphans []cleanup.FileInfo) string {
	if len(orphans) == 0 {
		return "No orphaned files found"
	}

	t := newTable()
	t.AppendHeader(table.Row{"PATH", "CATEGORY", "SIZE (MB)"})
	for _, orphan := range orphans {
		t.AppendRow(table.Row{orphan.Path, orphan.Category, fmt.Sprintf("%.2f", orphan.SizeMB)})
	}
	return t.Render()
}

// ReconcileTables renders a reconciliation report as a sequence of tables.
func ReconcileTables(report *reconcile.Report) string {
	out := ""

	sources := newTable()
	sources.AppendHeader(table.Row{"SOURCE", "PATH", "STATUS", "SERVERS"})
	for _, status := range report.SourceStatuses {
		state := "ok"
		switch {
		case !status.Exists:
			state = "missing"
		case status.Empty:
			state = "empty"
		case status.Err != "":
			state = text.FgRed.Sprint("error: " + status.Err)
		}
		sources.AppendRow(table.Row{status.Name, status.Path, state, status.ServerCount})
	}
	out += sources.Render() + "\n"

	if len(report.Servers) > 0 {
		servers := newTable()
		servers.AppendHeader(table.Row{"NAME", "TYPE", "REGISTERED", "DISABLED", "SOURCES"})
		for _, row := range report.Servers {
			servers.AppendRow(table.Row{row.Name, row.Type, row.Registered, row.Disabled, row.Sources})
		}
		out += servers.Render() + "\n"
	}

	if len(report.Orphaned) > 0 {
		out += fmt.Sprintf("Orphaned (registered but not configured): %v\n", report.Orphaned)
	}
	if len(report.Unmanaged) > 0 {
		out += fmt.Sprintf("Unmanaged (configured but not registered): %v\n", report.Unmanaged)
	}
	if len(report.Orphaned) == 0 && len(report.Unmanaged) == 0 {
		out += "Registry and editor configs are in sync\n"
	}
	return out
}
