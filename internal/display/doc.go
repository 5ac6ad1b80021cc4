// Package display renders user-facing terminal output for mpcdata: progress
// lines while converting files, warnings, and session tables.
//
// Every function writes to an io.Writer. Colors are applied only when the
// writer is a terminal (see ColorEnabled).
//
//	progress := display.NewProgressIndicator(os.Stdout, len(files))
//	progress.Start()
//	for _, file := range files {
//	    progress.Step(file)
//	}
//	progress.Complete()
//
// Session tables align columns by display width:
//
//	t := display.NewTable("ID", "Subject", "Box")
//	t.AddRow(id, subject, box)
//	t.Render(os.Stdout)
package display
