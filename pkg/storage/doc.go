// Package storage manages downloaded scraping job exports on disk.
//
// Exports are stored as scraping-job-<id>.<format> in a single output
// directory. The Manager scans that directory at construction so repeated
// sync runs skip exports that are already present, and every write goes
// through WriteFileAtomic so an interrupted download never leaves a partial
// file behind.
//
//	manager, err := storage.NewManager("exports")
//	if err != nil {
//		return err
//	}
//
//	if !manager.IsDownloaded(jobID, "json") {
//		err = manager.SaveExport(body, jobID, "json")
//	}
package storage
