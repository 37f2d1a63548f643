// Package reader streams records out of downloaded scraping job exports.
//
// JSON exports hold one object per line; CSV exports are keyed by their
// header row. Either can be read through gzip. Rows re-reads the file from
// the beginning on every call, so a reader can be iterated more than once
// while it is open.
//
//	r, err := reader.Open("exports/scraping-job-500.json", reader.Options{})
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	for row, err := range r.Rows() {
//		if err != nil {
//			return err
//		}
//		fmt.Println(row["title"])
//	}
package reader
